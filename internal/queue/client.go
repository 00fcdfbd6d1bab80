package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Handler processes one decoded message. A nil error acknowledges it.
type Handler func(ctx context.Context, msg Message) error

// Consumer delivers messages to a Handler until ctx is cancelled.
type Consumer interface {
	Run(ctx context.Context, handle Handler) error
}
