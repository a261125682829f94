package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"profile-registry/internal/metrics"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager is the notification hub. Clients subscribe to topics and receive
// every message published to them. Register, Unregister and HandleMessage are
// only drained while Run is active.
type Manager struct {
	clients           map[string]*Client
	subjectIndex      map[string]map[string]bool
	topics            map[string]map[string]bool
	clientsMutex      sync.RWMutex
	Register          chan *Client
	Unregister        chan *Client
	HandleMessage     chan *ClientMessage
	done              chan struct{}
	maxConnPerSubject int
	writeWait         time.Duration
	pongWait          time.Duration
	pingPeriod        time.Duration
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func NewManager(maxConnPerSubject int, writeWait, pongWait, pingPeriod time.Duration, opts ...Option) *Manager {
	m := &Manager{
		clients:           make(map[string]*Client),
		subjectIndex:      make(map[string]map[string]bool),
		topics:            make(map[string]map[string]bool),
		Register:          make(chan *Client),
		Unregister:        make(chan *Client),
		HandleMessage:     make(chan *ClientMessage),
		done:              make(chan struct{}),
		maxConnPerSubject: maxConnPerSubject,
		writeWait:         writeWait,
		pongWait:          pongWait,
		pingPeriod:        pingPeriod,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

// Connect hands a client to the hub. It reports false once the hub has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) disconnect(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) shutdown() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	close(m.done)
	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.subjectIndex = make(map[string]map[string]bool)
	m.topics = make(map[string]map[string]bool)
	m.metrics.SetNotifierClients(0)
	m.logger.Info("notifier stopped")
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if client.Subject != "" {
		if m.subjectIndex[client.Subject] == nil {
			m.subjectIndex[client.Subject] = make(map[string]bool)
		}
		if len(m.subjectIndex[client.Subject]) >= m.maxConnPerSubject {
			m.logger.Warn("max connections reached", "subject", client.Subject)
			close(client.Send)
			return
		}
		m.subjectIndex[client.Subject][client.ID] = true
	}

	m.clients[client.ID] = client
	m.subscribe(client, TopicProfiles)
	m.metrics.SetNotifierClients(len(m.clients))

	m.logger.Debug("client registered", "client_id", client.ID, "subject", client.Subject)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}

	delete(m.clients, client.ID)
	if client.Subject != "" {
		delete(m.subjectIndex[client.Subject], client.ID)
		if len(m.subjectIndex[client.Subject]) == 0 {
			delete(m.subjectIndex, client.Subject)
		}
	}
	for topic := range client.topics {
		m.unsubscribe(client, topic)
	}

	m.metrics.SetNotifierClients(len(m.clients))
	close(client.Send)
	m.logger.Debug("client unregistered", "client_id", client.ID)
}

// subscribe and unsubscribe expect clientsMutex to be held.
func (m *Manager) subscribe(client *Client, topic string) {
	if m.topics[topic] == nil {
		m.topics[topic] = make(map[string]bool)
	}
	m.topics[topic][client.ID] = true
	client.topics[topic] = true
}

func (m *Manager) unsubscribe(client *Client, topic string) {
	delete(m.topics[topic], client.ID)
	if len(m.topics[topic]) == 0 {
		delete(m.topics, topic)
	}
	delete(client.topics, topic)
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Warn("malformed client message", "client_id", clientMsg.Client.ID, "error", err)
		return
	}

	client := clientMsg.Client

	switch msg.Type {
	case TypePing:
		m.reply(client, TypePong, nil)

	case TypeSubscribe, TypeUnsubscribe:
		var payload SubscribePayload
		if err := msg.UnmarshalPayload(&payload); err != nil || strings.TrimSpace(payload.Topic) == "" {
			m.reply(client, TypeAck, &AckPayload{Success: false, Error: "topic is required"})
			return
		}

		m.clientsMutex.Lock()
		if _, ok := m.clients[client.ID]; ok {
			if msg.Type == TypeSubscribe {
				m.subscribe(client, payload.Topic)
			} else {
				m.unsubscribe(client, payload.Topic)
			}
		}
		m.clientsMutex.Unlock()

		m.reply(client, TypeAck, &AckPayload{Topic: payload.Topic, Success: true})

	default:
		m.logger.Debug("unknown message type", "type", msg.Type, "client_id", client.ID)
	}
}

func (m *Manager) reply(client *Client, msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		m.logger.Error("failed to build reply", "type", msgType, "error", err)
		return
	}
	if err := m.SendToClient(client.ID, msg); err != nil {
		m.logger.Error("failed to send reply", "type", msgType, "error", err)
	}
}

// Publish delivers message to every subscriber of topic. Clients whose send
// buffer is full are disconnected.
func (m *Manager) Publish(topic string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for clientID := range m.topics[topic] {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		m.logger.Warn("client send buffer full, closing connection", "client_id", client.ID)
		go m.disconnect(client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn("client send buffer full", "client_id", clientID)
	}

	return nil
}

func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) Subscribers(topic string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.topics[topic])
}
