package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socioscan-backend/internal/account"
	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/resumes"
	"socioscan-backend/internal/services/health"
	"socioscan-backend/internal/shared/auth"
	"socioscan-backend/internal/shared/config"
	"socioscan-backend/internal/shared/metrics"
	"socioscan-backend/internal/shared/server/middleware"
	"socioscan-backend/internal/shared/server/respond"
	localstore "socioscan-backend/internal/shared/storage/object/local"
	"socioscan-backend/internal/subscriptions"
	"socioscan-backend/internal/support"
)

// Rate limit groups.
const (
	GroupRead    = "READ"
	GroupWrite   = "WRITE"
	GroupUpload  = "UPLOAD"
	GroupScan    = "SCAN"
	GroupSupport = "SUPPORT"
)

// PublicPrefixes are served without a bearer token.
var PublicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/objects/",
	"/api/v1/plans",
	"/metrics",
	"/api/parseResume",
	"/scan_resume",
}

// DefaultRateLimits apply per user, or per client IP on public routes.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	GroupRead:    {Rate: 10, Burst: 60},
	GroupWrite:   {Rate: 2, Burst: 20},
	GroupUpload:  {Rate: 0.2, Burst: 5},
	GroupScan:    {Rate: 0.5, Burst: 10},
	GroupSupport: {Rate: 0.05, Burst: 3},
}

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config        config.Config
	Verifier      auth.Verifier
	Health        *health.Service
	Limiter       *middleware.RateLimiter
	Profiles      *profiles.Handler
	Resumes       *resumes.Handler
	Subscriptions *subscriptions.Handler
	Support       *support.Handler
	Account       *account.Handler
	Objects       *localstore.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(middleware.AuthConfig{
			Verifier:       deps.Verifier,
			PublicPrefixes: PublicPrefixes,
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        DefaultRateLimits,
			DefaultGroup: GroupWrite,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	registerMeRoutes(api)

	if deps.Profiles != nil {
		deps.Profiles.RegisterRoutes(api)
	}
	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(api)
		deps.Resumes.RegisterLegacyRoutes(r)
	}
	if deps.Subscriptions != nil {
		deps.Subscriptions.RegisterRoutes(api)
	}
	if deps.Support != nil {
		deps.Support.RegisterRoutes(api)
	}
	if deps.Account != nil {
		deps.Account.RegisterRoutes(api)
	}
	if deps.Objects != nil {
		deps.Objects.RegisterRoutes(api)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	method := c.Request.Method
	switch c.FullPath() {
	case "/api/v1/resumes/scan", "/api/parseResume", "/scan_resume":
		return GroupScan
	case "/api/v1/resumes":
		if method == http.MethodPost {
			return GroupUpload
		}
	case "/api/v1/support":
		return GroupSupport
	}
	if method == http.MethodGet || method == http.MethodHead {
		return GroupRead
	}
	return GroupWrite
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
