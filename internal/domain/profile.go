package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ProfileSnapshot maps known profile fields to their values. Absent fields read as null.
type ProfileSnapshot map[FieldName]FieldValue

// EmptySnapshot returns the all-empty baseline used when a profile has no edits yet.
func EmptySnapshot() ProfileSnapshot {
	s := make(ProfileSnapshot, len(ProfileFields))
	for _, f := range ProfileFields {
		s[f] = Scalar("")
	}
	return s
}

func (s ProfileSnapshot) Get(field FieldName) FieldValue {
	if s == nil {
		return Null()
	}
	return s[field]
}

func (s ProfileSnapshot) Has(field FieldName) bool {
	_, ok := s[field]
	return ok
}

func (s ProfileSnapshot) Clone() ProfileSnapshot {
	out := make(ProfileSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a copy of s with every key of over applied on top.
func (s ProfileSnapshot) Merge(over ProfileSnapshot) ProfileSnapshot {
	out := s.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Fields lists the present fields in canonical order.
func (s ProfileSnapshot) Fields() []FieldName {
	out := make([]FieldName, 0, len(s))
	for _, f := range ProfileFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s *ProfileSnapshot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid profile snapshot: %w", err)
	}

	out := make(ProfileSnapshot, len(raw))
	for key, value := range raw {
		field := FieldName(key)
		if !IsProfileField(field) {
			continue
		}
		var fv FieldValue
		if err := fv.UnmarshalJSON(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		out[field] = fv
	}

	*s = out
	return nil
}

type ProfileMetadata struct {
	FileID      string    `json:"file_id"`
	Version     int       `json:"version"`
	PublicKey   string    `json:"public_key"`
	ProfileHash string    `json:"profile_hash"`
	Signature   string    `json:"signature,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *ProfileMetadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		FileID      json.RawMessage `json:"file_id"`
		Version     json.RawMessage `json:"version"`
		PublicKey   string          `json:"public_key"`
		ProfileHash string          `json:"profile_hash"`
		Signature   string          `json:"signature"`
		Timestamp   json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("invalid profile metadata: %w", err)
	}

	m.FileID = rawText(aux.FileID)
	m.Version, _ = strconv.Atoi(rawText(aux.Version))
	m.PublicKey = aux.PublicKey
	m.ProfileHash = aux.ProfileHash
	m.Signature = aux.Signature
	m.Timestamp = ParseTimestamp(aux.Timestamp)
	return nil
}

// CurrentProfile is the latest stored snapshot as returned by the registry.
type CurrentProfile struct {
	ProfileData ProfileSnapshot `json:"profile_data"`
	Metadata    ProfileMetadata `json:"metadata"`
}

// EditRecord is one append-only change produced by the registry on update.
type EditRecord struct {
	ChangedFields []FieldName     `json:"changed_fields"`
	OldValues     ProfileSnapshot `json:"old_values"`
	NewValues     ProfileSnapshot `json:"new_values"`
	ChangedAt     time.Time       `json:"changed_at"`
}

// UnmarshalJSON never fails. A part with the wrong shape decodes as empty so
// one malformed record cannot drop the rest of the history.
func (r *EditRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		ChangedFields json.RawMessage `json:"changed_fields"`
		OldValues     json.RawMessage `json:"old_values"`
		NewValues     json.RawMessage `json:"new_values"`
		ChangedAt     json.RawMessage `json:"changed_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		slog.Debug("malformed edit record, using empty record", "error", err)
		*r = EditRecord{ChangedFields: []FieldName{}}
		return nil
	}

	var names []string
	if err := decodeOptional(aux.ChangedFields, &names); err != nil {
		slog.Debug("malformed changed_fields, treating as none", "error", err)
		names = nil
	}

	r.ChangedFields = NormalizeFieldNames(names)
	r.OldValues = decodeValues("old_values", aux.OldValues)
	r.NewValues = decodeValues("new_values", aux.NewValues)
	r.ChangedAt = ParseTimestamp(aux.ChangedAt)
	return nil
}

func decodeValues(part string, raw json.RawMessage) ProfileSnapshot {
	var s ProfileSnapshot
	if err := decodeOptional(raw, &s); err != nil {
		slog.Debug("malformed edit values, treating as null", "part", part, "error", err)
		return nil
	}
	return s
}

func decodeOptional(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// EditHistory is the registry response for a profile's edits, newest first.
type EditHistory struct {
	EditHistory []EditRecord    `json:"edit_history"`
	Metadata    ProfileMetadata `json:"metadata"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp reads a JSON string or number as a timestamp. Unparseable input yields the zero time.
func ParseTimestamp(raw json.RawMessage) time.Time {
	text := rawText(raw)
	if text == "" {
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC()
		}
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		// millisecond epochs are thirteen digits
		if f > 1e12 {
			return time.UnixMilli(int64(f)).UTC()
		}
		sec := int64(f)
		return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
	}

	return time.Time{}
}

func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}

// SubmitProfileRequest is the form payload for creating or updating the company profile.
type SubmitProfileRequest struct {
	CompanyName         string   `json:"company_name" validate:"required,max=200"`
	Location            string   `json:"location" validate:"required,max=200"`
	Contact             string   `json:"contact" validate:"required,max=200"`
	Size                string   `json:"size" validate:"max=100"`
	Established         string   `json:"established" validate:"omitempty,numeric,len=4"`
	Revenue             string   `json:"revenue" validate:"max=100"`
	MarketSegments      []string `json:"market_segments" validate:"dive,required"`
	TechnologyFocus     []string `json:"technology_focus" validate:"dive,required"`
	KeyMarkets          []string `json:"key_markets" validate:"dive,required"`
	CustomerSegments    []string `json:"customer_segments" validate:"dive,required"`
	CompetitivePosition string   `json:"competitive_position" validate:"max=2000"`
	Partnerships        []string `json:"partnerships" validate:"dive,required"`
	Certifications      []string `json:"certifications" validate:"dive,required"`
	SalesChannels       []string `json:"sales_channels" validate:"dive,required"`
}

func (r *SubmitProfileRequest) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		FieldCompanyName:         Scalar(r.CompanyName),
		FieldLocation:            Scalar(r.Location),
		FieldContact:             Scalar(r.Contact),
		FieldSize:                Scalar(r.Size),
		FieldEstablished:         Scalar(r.Established),
		FieldRevenue:             Scalar(r.Revenue),
		FieldMarketSegments:      List(r.MarketSegments...),
		FieldTechnologyFocus:     List(r.TechnologyFocus...),
		FieldKeyMarkets:          List(r.KeyMarkets...),
		FieldCustomerSegments:    List(r.CustomerSegments...),
		FieldCompetitivePosition: Scalar(r.CompetitivePosition),
		FieldPartnerships:        List(r.Partnerships...),
		FieldCertifications:      List(r.Certifications...),
		FieldSalesChannels:       List(r.SalesChannels...),
	}
}
