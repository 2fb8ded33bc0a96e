package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-interview-engine/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, ParseOrigins(" , ,"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		ParseOrigins(" https://a.example, https://b.example "))
}

func TestBuildRouter_HealthAndHeaders(t *testing.T) {
	t.Parallel()
	cfg := config.Config{RateLimitPerMin: 10, CORSAllowOrigins: "*"}
	srv := &httpserver.Server{Cfg: cfg}
	h := BuildRouter(cfg, srv)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildReadinessChecks(t *testing.T) {
	t.Parallel()
	cfg := config.Config{TikaURL: ""}
	dbCheck, redisCheck, tikaCheck := BuildReadinessChecks(cfg, nil, nil)

	require.Error(t, dbCheck(context.Background()), "nil pool is not ready")
	assert.Nil(t, redisCheck, "redis check disabled without a client")
	require.Error(t, tikaCheck(context.Background()), "empty tika url is not ready")
}
