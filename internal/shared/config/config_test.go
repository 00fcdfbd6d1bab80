package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("SIGNED_URL_EXPIRY", "")
	t.Setenv("QUEUE_BACKEND", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.SignedURLExpiry != time.Hour {
		t.Fatalf("expected 1h signed url expiry, got %s", cfg.SignedURLExpiry)
	}
	if cfg.FetchMaxRedirects != 5 || cfg.FetchMaxBytes != 10<<20 || cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("unexpected fetch limits: %+v", cfg)
	}
	if cfg.ScoreWordThreshold != 500 || cfg.ScoreCap != 100 {
		t.Fatalf("unexpected score constants: %d/%d", cfg.ScoreWordThreshold, cfg.ScoreCap)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestLoadDurationAcceptsSeconds(t *testing.T) {
	t.Setenv("SIGNED_URL_EXPIRY", "900")
	cfg := Load()
	if cfg.SignedURLExpiry != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.SignedURLExpiry)
	}
}

func TestValidateRequiresBucketForS3(t *testing.T) {
	t.Setenv("OBJECT_STORE", "s3")
	t.Setenv("S3_BUCKET", "")
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error without S3_BUCKET")
	}
}

func TestValidateRequiresDatabaseInProduction(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FIREBASE_PROJECT_ID", "socio-scan")
	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error without DATABASE_URL")
	}
}

func TestNormalizeQueueBackend(t *testing.T) {
	cases := map[string]string{"": "none", "SQS": "sqs", "amqp": "rabbitmq", "rabbitmq": "rabbitmq", "kafka": "none"}
	for in, want := range cases {
		if got := normalizeQueueBackend(in); got != want {
			t.Fatalf("normalizeQueueBackend(%q) = %q, want %q", in, got, want)
		}
	}
}
