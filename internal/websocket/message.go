package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeProfileUpdated   MessageType = "profile_updated"
	TypeHistoryRefreshed MessageType = "history_refreshed"
	TypeSubscribe        MessageType = "subscribe"
	TypeUnsubscribe      MessageType = "unsubscribe"
	TypeAck              MessageType = "ack"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

// TopicProfiles receives every registry change. Per-profile topics are built
// with ProfileTopic.
const TopicProfiles = "profiles"

func ProfileTopic(fileID string) string {
	return "profile:" + fileID
}

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type ProfileUpdatedPayload struct {
	FileID      string    `json:"file_id"`
	Version     int       `json:"version"`
	ProfileHash string    `json:"profile_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type HistoryRefreshedPayload struct {
	Status   string `json:"status"`
	FileID   string `json:"file_id,omitempty"`
	Versions int    `json:"versions"`

	// HighestVersion is the largest version number in the timeline. Version 1
	// is the newest edit, so this labels the oldest one.
	HighestVersion int       `json:"highest_version"`
	BuiltAt        time.Time `json:"built_at"`
}

type SubscribePayload struct {
	Topic string `json:"topic"`
}

type AckPayload struct {
	Topic   string `json:"topic,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
