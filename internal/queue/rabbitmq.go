package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"socioscan-backend/internal/shared/telemetry"
)

// RabbitMQClient publishes to and consumes from one durable queue on the
// default exchange.
type RabbitMQClient struct {
	conn  *amqp.Connection
	queue string

	mu    sync.Mutex
	pubCh *amqp.Channel

	// Prefetch bounds unacknowledged deliveries and handler concurrency.
	Prefetch int
}

// NewRabbitMQClient dials url and declares queue.
func NewRabbitMQClient(url, queue string) (*RabbitMQClient, error) {
	queue = strings.TrimSpace(queue)
	if strings.TrimSpace(url) == "" || queue == "" {
		return nil, fmt.Errorf("RABBITMQ_URL and RABBITMQ_QUEUE are required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitMQClient{conn: conn, queue: queue, pubCh: ch, Prefetch: defaultConcurrency}, nil
}

// Send publishes a persistent JSON message.
func (r *RabbitMQClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode rabbitmq message: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.pubCh.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         payload,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Run consumes until ctx is cancelled or the channel closes.
func (r *RabbitMQClient) Run(ctx context.Context, handle Handler) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	prefetch := max(1, r.Prefetch)
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	telemetry.Info("queue.rabbitmq.started", map[string]any{"queue": r.queue, "prefetch": prefetch})

	sem := make(chan struct{}, prefetch)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				settle(d, decide(ctx, handle, d.Body, d.Redelivered))
			}(d)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubCh != nil {
		_ = r.pubCh.Close()
	}
	return r.conn.Close()
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// decide runs handle and picks how the delivery is settled. A failed message
// is requeued once, then dropped so a poison message cannot spin forever.
func decide(ctx context.Context, handle Handler, body []byte, redelivered bool) outcome {
	msg, err := DecodeMessage(body)
	if err != nil {
		telemetry.Error("queue.rabbitmq.decode_failed", map[string]any{
			"body_len": len(body),
			"error":    err.Error(),
		})
		return outcomeDrop
	}
	if err := handle(ctx, msg); err != nil {
		telemetry.Error("queue.rabbitmq.handle_failed", map[string]any{
			"reference":   msg.Reference,
			"redelivered": redelivered,
			"error":       err.Error(),
		})
		if redelivered {
			return outcomeDrop
		}
		return outcomeRequeue
	}
	return outcomeAck
}

func settle(d amqp.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeAck:
		err = d.Ack(false)
	case outcomeRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		telemetry.Error("queue.rabbitmq.settle_failed", map[string]any{"error": err.Error()})
	}
}

var (
	_ Client   = (*RabbitMQClient)(nil)
	_ Consumer = (*RabbitMQClient)(nil)
)
