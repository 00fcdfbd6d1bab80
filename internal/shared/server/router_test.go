package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"socioscan-backend/internal/shared/config"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}

func TestRateLimitGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		method, route, want string
	}{
		{http.MethodPost, "/api/v1/resumes/scan", GroupScan},
		{http.MethodPost, "/scan_resume", GroupScan},
		{http.MethodPost, "/api/parseResume", GroupScan},
		{http.MethodPost, "/api/v1/resumes", GroupUpload},
		{http.MethodPost, "/api/v1/support", GroupSupport},
		{http.MethodGet, "/api/v1/profile", GroupRead},
		{http.MethodPatch, "/api/v1/profile", GroupWrite},
	}
	for _, tc := range cases {
		r := gin.New()
		var got string
		r.Handle(tc.method, tc.route, func(c *gin.Context) {
			got = rateLimitGroup(c)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.route, nil))
		assert.Equal(t, tc.want, got, "%s %s", tc.method, tc.route)
	}
}

func TestNewRouterWithoutHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{Config: config.Config{CORSAllowOrigin: []string{"http://localhost:5173"}}})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
