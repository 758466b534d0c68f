package messages

import (
	"encoding/json"
	"fmt"
)

const (
	// MessageBufferSize represents the maximum size of a serialized message
	MessageBufferSize = 1024
)

// MessageType is the type tag of a wire message.
type MessageType string

const (
	MessageTypeClientRegister      MessageType = "register"
	MessageTypeServerRegisterAck   MessageType = "register_ack"
	MessageTypeServerCountdownTick MessageType = "countdown_tick"
	MessageTypeServerStart         MessageType = "start"
	MessageTypeServerQuestion      MessageType = "question"
	MessageTypeClientAnswer        MessageType = "answer"
	MessageTypeServerSnapshot      MessageType = "snapshot"
	MessageTypeServerGameOver      MessageType = "game_over"
	MessageTypeServerError         MessageType = "error"
	MessageTypePing                MessageType = "ping"
)

// Message represents a generic message for serialization/deserialization.
// ClientID 0 means the message is from the server.
type Message struct {
	ClientID uint32          `json:"clientID"`
	Type     MessageType     `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload and wraps it in a Message.
// A nil payload produces a message with no payload (e.g. ping).
func NewMessage(clientID uint32, msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{
		ClientID: clientID,
		Type:     msgType,
	}
	if payload == nil {
		return msg, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", msgType, err)
	}
	msg.Payload = b
	return msg, nil
}

// DecodePayload unmarshals a message payload into v.
func DecodePayload(m *Message, v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
	}
	return nil
}

// ClientRegister is sent by a client as the first message on a connection.
type ClientRegister struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
}

// ServerRegisterAck confirms a registration and carries the assigned player ID.
type ServerRegisterAck struct {
	PlayerID uint32 `json:"playerId"`
}

// ServerCountdownTick is broadcast once per second while the countdown runs.
type ServerCountdownTick struct {
	SecondsRemaining int `json:"secondsRemaining"`
	PlayerCount      int `json:"playerCount"`
}

// ServerStart is broadcast when the countdown expires and the race begins.
type ServerStart struct {
	PlayerCount int `json:"playerCount"`
}

// ServerQuestion carries a question to a single player.
type ServerQuestion struct {
	QuestionID int64  `json:"questionId"`
	Prompt     string `json:"promptText"`
}

// ClientAnswer is a player's answer to their outstanding question.
type ClientAnswer struct {
	QuestionID int64 `json:"questionId"`
	Answer     int   `json:"answerValue"`
}

// ServerSnapshot is the complete current view of the race, broadcast to all players.
type ServerSnapshot struct {
	Positions map[uint32]int    `json:"positionsById"`
	Names     map[uint32]string `json:"namesById"`
}

// ServerGameOver is broadcast once per game when a player reaches the finish line.
type ServerGameOver struct {
	WinnerID   uint32            `json:"winnerId"`
	WinnerName string            `json:"winnerName"`
	Positions  map[uint32]int    `json:"positionsById"`
	Names      map[uint32]string `json:"namesById"`
}

// ServerError is sent to a single client before the server gives up on it.
type ServerError struct {
	Message string `json:"message"`
}
