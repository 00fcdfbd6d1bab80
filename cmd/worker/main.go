package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"socioscan-backend/internal/bootstrap"
	"socioscan-backend/internal/queue"
	"socioscan-backend/internal/shared/config"
	"socioscan-backend/internal/shared/telemetry"
)

const (
	defaultWorkerConcurrency  = 4
	defaultJobTimeoutSec      = 60
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.QueueBackend == "none" {
		log.Fatal("QUEUE_BACKEND must be sqs or rabbitmq for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	consumer, ok := app.Queue.(queue.Consumer)
	if !ok {
		log.Fatalf("queue backend %s cannot consume", cfg.QueueBackend)
	}
	configureConsumer(consumer, envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency))

	jobTimeout := time.Duration(envInt("WORKER_JOB_TIMEOUT_SECONDS", defaultJobTimeoutSec)) * time.Second
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, jobHandler(app.Reaper.Process, jobTimeout))
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Fatalf("worker stopped: %v", err)
		}
		return
	case <-ctx.Done():
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("worker stopped: %v", err)
		}
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

// jobHandler gives each message its own deadline so a shutdown signal does
// not abort a delete halfway through.
func jobHandler(process queue.Handler, timeout time.Duration) queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		start := time.Now()
		err := process(jobCtx, msg)
		fields := map[string]any{
			"kind":        msg.Kind,
			"reference":   msg.Reference,
			"request_id":  msg.RequestID,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Error("worker.job.failed", fields)
			return err
		}
		telemetry.Info("worker.job.completed", fields)
		return nil
	}
}

func configureConsumer(consumer queue.Consumer, concurrency int) {
	switch c := consumer.(type) {
	case *queue.SQSClient:
		c.Concurrency = concurrency
		c.VisibilitySeconds = envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", c.VisibilitySeconds)
	case *queue.RabbitMQClient:
		c.Prefetch = concurrency
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
