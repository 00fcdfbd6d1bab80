package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Support mailbox defaults.
const (
	DefaultSupportFrom = "no-reply@socioscan.app"
	DefaultSupportTo   = "support@socioscan.app"
)

// Config holds application configuration.
type Config struct {
	Port            string `validate:"required"`
	Env             string `validate:"oneof=dev local staging production"`
	CORSAllowOrigin []string
	LogLevel        string
	LogFormat       string `validate:"omitempty,oneof=json pretty"`
	DatabaseURL     string `validate:"required_if=Env production"`

	ObjectStoreType  string `validate:"oneof=local s3 minio"`
	LocalStoreDir    string `validate:"required_if=ObjectStoreType local"`
	PublicBaseURL    string `validate:"omitempty,url"`
	ObjectSigningKey string
	AWSRegion        string
	S3Bucket         string `validate:"required_if=ObjectStoreType s3,required_if=ObjectStoreType minio"`
	S3Prefix         string
	SSEKMSKeyID      string
	MinIOEndpoint    string `validate:"required_if=ObjectStoreType minio"`
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	SignedURLExpiry  time.Duration `validate:"gt=0"`
	MaxUploadBytes   int64         `validate:"gt=0"`
	StoreTimeout     time.Duration `validate:"gt=0"`

	FetchTimeout      time.Duration `validate:"gt=0"`
	FetchMaxBytes     int64         `validate:"gt=0"`
	FetchMaxRedirects int           `validate:"gte=0"`

	ScoreWordThreshold int    `validate:"gt=0"`
	ScoreCap           int    `validate:"gt=0,lte=100"`
	ScanServiceURL     string `validate:"omitempty,url"`

	QueueBackend  string `validate:"oneof=none sqs rabbitmq"`
	SQSQueueURL   string `validate:"required_if=QueueBackend sqs"`
	RabbitMQURL   string `validate:"required_if=QueueBackend rabbitmq"`
	RabbitMQQueue string

	RedisURL    string
	InFlightTTL time.Duration `validate:"gt=0"`

	FirebaseProjectID       string `validate:"required_if=Env production"`
	FirebaseCredentialsFile string
	AuthDevSecret           string

	SendGridAPIKey   string
	SupportFromEmail string `validate:"omitempty,email"`
	SupportToEmail   string `validate:"omitempty,email"`

	PlansFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		DatabaseURL:     dbURL,

		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		ObjectSigningKey: getEnv("OBJECT_SIGNING_KEY", ""),
		AWSRegion:        getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:      getBool("MINIO_USE_SSL", true),
		SignedURLExpiry:  getDuration("SIGNED_URL_EXPIRY", time.Hour),
		MaxUploadBytes:   getInt64("MAX_UPLOAD_BYTES", 10<<20),
		StoreTimeout:     getDuration("STORE_TIMEOUT", 10*time.Second),

		FetchTimeout:      getDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchMaxBytes:     getInt64("FETCH_MAX_BYTES", 10<<20),
		FetchMaxRedirects: int(getInt64("FETCH_MAX_REDIRECTS", 5)),

		ScoreWordThreshold: int(getInt64("SCORE_WORD_THRESHOLD", 500)),
		ScoreCap:           int(getInt64("SCORE_CAP", 100)),
		ScanServiceURL:     getEnv("SCAN_SERVICE_URL", ""),

		QueueBackend:  normalizeQueueBackend(getEnv("QUEUE_BACKEND", "none")),
		SQSQueueURL:   getEnv("SQS_QUEUE_URL", ""),
		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue: getEnv("RABBITMQ_QUEUE", "socioscan.object-deletions"),

		RedisURL:    getEnv("REDIS_URL", ""),
		InFlightTTL: getDuration("INFLIGHT_TTL", 2*time.Minute),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		AuthDevSecret:           getEnv("AUTH_DEV_SECRET", ""),

		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SupportFromEmail: getEnv("SUPPORT_FROM_EMAIL", DefaultSupportFrom),
		SupportToEmail:   getEnv("SUPPORT_TO_EMAIL", DefaultSupportTo),

		PlansFile: getEnv("PLANS_FILE", ""),
	}
}

var validate = validator.New()

// Validate checks cross-field requirements such as bucket settings for remote stores.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsDevLike reports whether in-memory fallbacks are allowed.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "rabbitmq", "amqp":
		return "rabbitmq"
	default:
		return "none"
	}
}
