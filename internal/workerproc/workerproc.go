// Package workerproc turns raw queue bodies into reaper jobs for runtimes that
// hand the worker a batch of strings, such as Lambda SQS triggers.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"socioscan-backend/internal/queue"
	"socioscan-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a malformed payload or one without an object reference.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrProcess indicates the handler failed after successful parsing.
type ErrProcess struct {
	Reference string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process object deletion"
	}
	return "process object deletion: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return msg, meta, nil
}

// Permanent reports whether redelivering the body can never succeed.
func Permanent(err error) bool {
	var empty ErrEmptyBody
	var decode ErrDecode
	return errors.As(err, &empty) || errors.As(err, &decode)
}

// HandleMessage parses body and runs handle on it. Unparseable bodies are
// logged and dropped; only handler failures are returned for redelivery.
func HandleMessage(ctx context.Context, handle queue.Handler, body string) error {
	if handle == nil {
		return errors.New("queue handler not configured")
	}

	msg, meta, err := ParseMessage(body)
	if err != nil {
		telemetry.Error("worker.message.dropped", map[string]any{
			"body_len": meta.BodyLen,
			"body_sha": meta.BodySHA,
			"error":    err.Error(),
		})
		return nil
	}

	if err := handle(ctx, msg); err != nil {
		return ErrProcess{Reference: msg.Reference, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
