package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"socioscan-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds = 300
	defaultConcurrency       = 4
)

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSClient sends and receives queue messages through AWS SQS.
type SQSClient struct {
	api      SQSAPI
	queueURL string

	// Consumer settings.
	Concurrency       int
	VisibilitySeconds int
}

// NewSQSClient constructs an SQS-backed queue client.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWithAPI(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSClientWithAPI wraps an existing SQS API implementation.
func NewSQSClientWithAPI(api SQSAPI, queueURL string) *SQSClient {
	return &SQSClient{
		api:               api,
		queueURL:          queueURL,
		Concurrency:       defaultConcurrency,
		VisibilitySeconds: defaultVisibilitySeconds,
	}
}

// Send delivers a message to the configured SQS queue.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Run long-polls the queue and hands messages to handle with bounded concurrency.
// It returns after ctx is cancelled and in-flight handlers finish.
func (s *SQSClient) Run(ctx context.Context, handle Handler) error {
	sem := make(chan struct{}, max(1, s.Concurrency))
	var wg sync.WaitGroup
	defer wg.Wait()

	telemetry.Info("queue.sqs.started", map[string]any{
		"queue":       s.queueURL,
		"concurrency": cap(sem),
		"visibility":  s.VisibilitySeconds,
	})

	for {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := s.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(s.VisibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			telemetry.Error("queue.sqs.receive_failed", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				return nil
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				s.handleMessage(ctx, handle, m)
			}(msg)
		}
	}
}

func (s *SQSClient) handleMessage(ctx context.Context, handle Handler, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, err := DecodeMessage([]byte(body))
	if err != nil {
		fields := baseFields(msg, decoded)
		fields["body_len"] = len(body)
		fields["error"] = err.Error()
		telemetry.Error("queue.sqs.decode_failed", fields)
		s.deleteMessage(ctx, msg, decoded)
		return
	}

	if err := handle(ctx, decoded); err != nil {
		fields := baseFields(msg, decoded)
		fields["error"] = err.Error()
		telemetry.Error("queue.sqs.handle_failed", fields)
		return
	}

	s.deleteMessage(ctx, msg, decoded)
}

func (s *SQSClient) deleteMessage(ctx context.Context, msg sqstypes.Message, decoded Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, decoded)
		fields["error"] = "missing receipt handle"
		telemetry.Error("queue.sqs.delete_failed", fields)
		return false
	}
	if _, err := s.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, decoded)
		fields["error"] = err.Error()
		telemetry.Error("queue.sqs.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, decoded Message) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
		"reference":      decoded.Reference,
	}
	if strings.TrimSpace(decoded.RequestID) != "" {
		fields["request_id"] = decoded.RequestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

var (
	_ Client   = (*SQSClient)(nil)
	_ Consumer = (*SQSClient)(nil)
)
