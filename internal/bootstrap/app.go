package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/account"
	"socioscan-backend/internal/extract"
	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/queue"
	"socioscan-backend/internal/resumes"
	"socioscan-backend/internal/scanservice"
	"socioscan-backend/internal/scoring"
	"socioscan-backend/internal/services/health"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/auth"
	"socioscan-backend/internal/shared/config"
	"socioscan-backend/internal/shared/inflight"
	"socioscan-backend/internal/shared/server"
	"socioscan-backend/internal/shared/server/middleware"
	"socioscan-backend/internal/shared/storage/db"
	"socioscan-backend/internal/shared/storage/object"
	localstore "socioscan-backend/internal/shared/storage/object/local"
	miniostore "socioscan-backend/internal/shared/storage/object/minio"
	s3store "socioscan-backend/internal/shared/storage/object/s3"
	"socioscan-backend/internal/shared/telemetry"
	"socioscan-backend/internal/subscriptions"
	"socioscan-backend/internal/support"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Gateway
	Queue  queue.Client
	Guard  inflight.Guard
	Reaper *resumes.ObjectReaper
	Health *health.Service

	ProfilesService      *profiles.Service
	ResumesService       *resumes.Service
	SubscriptionsService *subscriptions.Service
	SupportService       *support.Service
	AccountService       *account.Service

	ProfilesHandler      *profiles.Handler
	ResumesHandler       *resumes.Handler
	SubscriptionsHandler *subscriptions.Handler
	SupportHandler       *support.Handler
	AccountHandler       *account.Handler
	ObjectsHandler       *localstore.Handler

	closers []io.Closer
}

// Build prepares shared dependencies and the router. It does not validate
// cfg; zero values fall back to defaults so tests can pass partial configs.
func Build(cfg config.Config) (*App, error) {
	cfg = withDefaults(cfg)
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB)
		app.Health.Register("database", sqlDB.PingContext)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	if local, ok := store.(*localstore.Store); ok {
		app.ObjectsHandler = localstore.NewHandler(local)
	}

	if err := buildQueue(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	if err := buildGuard(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := buildServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Verifier:      verifier,
		Health:        app.Health,
		Limiter:       middleware.NewRateLimiter(nil),
		Profiles:      app.ProfilesHandler,
		Resumes:       app.ResumesHandler,
		Subscriptions: app.SubscriptionsHandler,
		Support:       app.SupportHandler,
		Account:       app.AccountHandler,
		Objects:       app.ObjectsHandler,
	})

	return app, nil
}

// Close releases pooled connections. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			telemetry.Warn("bootstrap.close_failed", map[string]any{"error": err.Error()})
		}
	}
	a.closers = nil
}

func withDefaults(cfg config.Config) config.Config {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.QueueBackend) == "" {
		cfg.QueueBackend = "none"
	}
	if cfg.LocalStoreDir == "" {
		cfg.LocalStoreDir = "./data"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	if cfg.SignedURLExpiry <= 0 {
		cfg.SignedURLExpiry = object.DefaultSignedURLExpiry
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = resumes.DefaultMaxUploadBytes
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = resumes.DefaultStoreTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchMaxBytes <= 0 {
		cfg.FetchMaxBytes = 10 << 20
	}
	if cfg.InFlightTTL <= 0 {
		cfg.InFlightTTL = inflight.DefaultTTL
	}
	if cfg.SupportFromEmail == "" {
		cfg.SupportFromEmail = config.DefaultSupportFrom
	}
	if cfg.SupportToEmail == "" {
		cfg.SupportToEmail = config.DefaultSupportTo
	}
	if cfg.RabbitMQQueue == "" {
		cfg.RabbitMQQueue = "socioscan.object-deletions"
	}
	return cfg
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil && !db.IsLambdaRuntime() {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db_memory", map[string]any{"reason": "database unavailable", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Gateway, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
		})
	case "local":
		var key []byte
		if cfg.ObjectSigningKey != "" {
			key = []byte(cfg.ObjectSigningKey)
		} else if !cfg.IsDevLike() {
			return nil, errors.New("OBJECT_SIGNING_KEY is required for the local store outside dev")
		}
		return localstore.New(localstore.Config{
			BaseDir:       cfg.LocalStoreDir,
			PublicBaseURL: cfg.PublicBaseURL,
			SigningKey:    key,
		}), nil
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectStoreType)
	}
}

func buildQueue(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.QueueBackend {
	case "sqs":
		client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return err
		}
		app.Queue = client
	case "rabbitmq":
		client, err := queue.NewRabbitMQClient(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return err
		}
		app.Queue = client
		app.closers = append(app.closers, client)
	case "none":
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", cfg.QueueBackend)
	}
	return nil
}

func buildGuard(ctx context.Context, app *App) error {
	cfg := app.Config
	if strings.TrimSpace(cfg.RedisURL) == "" {
		app.Guard = inflight.NewMemoryGuard(cfg.InFlightTTL)
		return nil
	}
	guard, err := inflight.NewRedisGuard(ctx, cfg.RedisURL, cfg.InFlightTTL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.guard_memory", map[string]any{"error": err.Error()})
			app.Guard = inflight.NewMemoryGuard(cfg.InFlightTTL)
			return nil
		}
		return err
	}
	app.Guard = guard
	app.closers = append(app.closers, guard)
	app.Health.Register("redis", guard.Ping)
	return nil
}

// buildVerifier prefers Firebase. Dev-like envs may fall back to the shared
// secret verifier; with neither configured every protected route answers 401.
func buildVerifier(cfg config.Config) (auth.Verifier, error) {
	if cfg.FirebaseProjectID != "" {
		v, err := auth.NewFirebaseVerifier(cfg.FirebaseProjectID)
		if err == nil {
			return v, nil
		}
		if !cfg.IsDevLike() || cfg.AuthDevSecret == "" {
			return nil, fmt.Errorf("firebase verifier: %w", err)
		}
		telemetry.Warn("bootstrap.firebase_unavailable", map[string]any{"error": err.Error()})
	}
	if cfg.AuthDevSecret != "" {
		if !cfg.IsDevLike() {
			return nil, errors.New("AUTH_DEV_SECRET is only honoured in dev or local")
		}
		v, err := auth.NewDevVerifier(cfg.AuthDevSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	if cfg.IsDevLike() {
		telemetry.Warn("bootstrap.no_verifier", map[string]any{"hint": "set FIREBASE_PROJECT_ID or AUTH_DEV_SECRET"})
		return nil, nil
	}
	return nil, errors.New("FIREBASE_PROJECT_ID is required")
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var (
		profileRepo profiles.Repo
		subRepo     subscriptions.Repo
		planSetter  subscriptions.PlanSetter
	)
	if app.DB != nil {
		pg := &profiles.PGRepo{DB: app.DB}
		profileRepo = pg
		planSetter = pg
		subRepo = &subscriptions.PGRepo{DB: app.DB}
	} else {
		mem := profiles.NewMemoryRepo()
		profileRepo = mem
		planSetter = mem
		subRepo = subscriptions.NewMemoryRepo(mem)
	}
	profileSvc := profiles.NewService(profileRepo)

	reaper := resumes.NewObjectReaper(app.Store, app.Queue, cfg.StoreTimeout)
	app.Reaper = reaper

	pipeline := extract.NewPipeline(extract.NewFetcher(extract.FetchOptions{
		Timeout:      cfg.FetchTimeout,
		MaxBytes:     cfg.FetchMaxBytes,
		MaxRedirects: cfg.FetchMaxRedirects,
	}))

	resumeSvc := &resumes.Service{
		Profiles:        profileSvc,
		Store:           app.Store,
		Pipeline:        pipeline,
		Reaper:          reaper,
		Guard:           app.Guard,
		WordScorer:      scoring.NewWordCountScorer(cfg.ScoreWordThreshold, cfg.ScoreCap),
		CategoryScorer:  scoring.KeywordScorer{},
		MaxUploadBytes:  cfg.MaxUploadBytes,
		SignedURLExpiry: cfg.SignedURLExpiry,
		StoreTimeout:    cfg.StoreTimeout,
		LegacyTimeout:   cfg.FetchTimeout,
		RetryPolicy:     apperr.DefaultRetryPolicy,
	}
	if cfg.ScanServiceURL != "" {
		scanner, err := scanservice.NewClient(cfg.ScanServiceURL, cfg.FetchTimeout)
		if err != nil {
			return err
		}
		resumeSvc.Scanner = scanner
	}

	catalog := subscriptions.DefaultCatalog()
	if cfg.PlansFile != "" {
		loaded, err := subscriptions.LoadCatalog(cfg.PlansFile)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	subSvc := subscriptions.NewService(subRepo, planSetter, catalog)

	var sender support.Sender = support.LogSender{}
	if cfg.SendGridAPIKey != "" {
		sender = support.NewSendGridSender(cfg.SendGridAPIKey)
	} else if !cfg.IsDevLike() {
		telemetry.Warn("bootstrap.support_log_only", map[string]any{"reason": "SENDGRID_API_KEY empty"})
	}
	supportSvc := support.NewService(sender, profileSvc, cfg.SupportFromEmail, cfg.SupportToEmail)

	accountSvc := account.NewService(profileSvc, subSvc, reaper, nil)
	accountSvc.DB = app.DB
	if cfg.FirebaseProjectID != "" {
		identity, err := account.NewFirebaseIdentity(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			if !cfg.IsDevLike() {
				return fmt.Errorf("firebase identity: %w", err)
			}
			telemetry.Warn("bootstrap.identity_disabled", map[string]any{"error": err.Error()})
		} else {
			accountSvc.Identity = identity
		}
	}

	app.ProfilesService = profileSvc
	app.ResumesService = resumeSvc
	app.SubscriptionsService = subSvc
	app.SupportService = supportSvc
	app.AccountService = accountSvc

	app.ProfilesHandler = profiles.NewHandler(profileSvc)
	app.ResumesHandler = resumes.NewHandler(resumeSvc)
	app.SubscriptionsHandler = subscriptions.NewHandler(subSvc)
	app.SupportHandler = support.NewHandler(supportSvc)
	app.AccountHandler = account.NewHandler(accountSvc)

	return nil
}
