package websocket

import (
	"encoding/json"
	"fmt"
)

const (
	ActionSessionCreate  = "session:create"
	ActionSessionJoin    = "session:join"
	ActionSessionMembers = "session:members"
	ActionStateUpdate    = "state:update"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is shared by every action. Responses reuse the action of the request.
type Payload struct {
	Code     string          `json:"code,omitempty"`
	PlayerID int             `json:"playerId,omitempty"`
	Members  []int           `json:"members,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Encode - builds the wire form of a message.
func Encode(action string, payload Payload) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// Decode - parses a wire message and its payload.
func Decode(data []byte) (*Message, *Payload, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	var payload Payload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	return &message, &payload, nil
}
