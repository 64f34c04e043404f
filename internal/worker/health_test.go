package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{"healthy", "/health", nil, http.StatusOK, "healthy"},
		{"unhealthy", "/health", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
		{"ready", "/ready", nil, http.StatusOK, "ready"},
		{"not ready", "/ready", errors.New("connection refused"), http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthServer(8082, &fakePinger{err: tt.pingErr}, zap.NewNop())

			rec := httptest.NewRecorder()
			hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestHealthServerStopWithoutStart(t *testing.T) {
	hs := NewHealthServer(8082, &fakePinger{}, zap.NewNop())
	assert.NoError(t, hs.Stop())
}
