package websocket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/google/uuid"
)

// Message types for WebSocket communication
const (
	MessageTypeConnection          = "connection"
	MessageTypeHeartbeat           = "heartbeat"
	MessageTypePong                = "pong"
	MessageTypeClimateStateChanged = "climate_state_changed"
	MessageTypeSubscriptionUpdate  = "subscription_update"
	MessageTypeError               = "error"

	// Client requests
	MessageTypePing        = "ping"
	MessageTypeSubscribe   = "subscribe_entity"
	MessageTypeUnsubscribe = "unsubscribe_entity"
)

// Message represents a WebSocket message
type Message struct {
	ID        string                 `json:"id,omitempty"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() []byte {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, _ := json.Marshal(m)
	return data
}

// UnmarshalJSON accepts RFC3339 timestamps as well as unix seconds or
// milliseconds, given either as a number or a string. A missing timestamp
// becomes the current time.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string                 `json:"id"`
		Type      string                 `json:"type"`
		Data      map[string]interface{} `json:"data"`
		Timestamp json.RawMessage        `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ID = raw.ID
	m.Type = raw.Type
	m.Data = raw.Data
	m.Timestamp = parseTimestamp(raw.Timestamp)
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Now().UTC()
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}

	if unix, err := strconv.ParseInt(text, 10, 64); err == nil {
		// 13 digits or more is milliseconds
		if unix >= 1e12 {
			return time.UnixMilli(unix).UTC()
		}
		return time.Unix(unix, 0).UTC()
	}
	if ts, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}

// ClimateStateChangedMessage creates a message carrying the state of one
// climate entity
func ClimateStateChangedMessage(state goveelife.ClimateState) Message {
	return Message{
		ID:   uuid.New().String(),
		Type: MessageTypeClimateStateChanged,
		Data: map[string]interface{}{
			"entity_id": state.EntityID,
			"state":     state,
		},
	}
}

// SubscriptionUpdateMessage acknowledges a subscription change
func SubscriptionUpdateMessage(entities []string) Message {
	return Message{
		Type: MessageTypeSubscriptionUpdate,
		Data: map[string]interface{}{
			"entity_ids": entities,
		},
	}
}

// ErrorMessage reports a rejected client request
func ErrorMessage(reason string) Message {
	return Message{
		Type: MessageTypeError,
		Data: map[string]interface{}{
			"error": reason,
		},
	}
}
