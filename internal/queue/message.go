package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	// KindObjectDelete asks the reaper to delete a resume object.
	KindObjectDelete = "object.delete"

	messageVersion = 1
)

var (
	ErrDecode        = errors.New("queue: malformed message")
	ErrMissingObject = errors.New("queue: message has no object reference")
)

// Message is the payload sent to the reaper worker.
type Message struct {
	Kind       string `json:"kind"`
	Reference  string `json:"reference"`
	UserID     string `json:"userId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Kind == "" {
		msg.Kind = KindObjectDelete
	}
	if msg.Version == 0 {
		msg.Version = messageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. Both errors it returns
// are permanent: redelivering the same body cannot succeed.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, errors.Join(ErrDecode, err)
	}
	if strings.TrimSpace(msg.Reference) == "" {
		return msg, ErrMissingObject
	}
	if msg.Kind == "" {
		msg.Kind = KindObjectDelete
	}
	return msg, nil
}
