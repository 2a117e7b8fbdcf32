package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() func(context.Context) error {
	return func(context.Context) error { return nil }
}

func failing(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func TestHealthChecker_AllHealthy(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck(&HealthCheck{Name: "catalog", CheckFunc: passing()})
	hc.RegisterCheck(&HealthCheck{Name: "redis", CheckFunc: passing(), Critical: true})

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, "OK", resp.Checks["catalog"].Message)
}

func TestHealthChecker_NonCriticalFailureDegrades(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck(&HealthCheck{Name: "catalog", CheckFunc: failing("empty")})
	hc.RegisterCheck(&HealthCheck{Name: "redis", CheckFunc: passing(), Critical: true})

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, resp.Status)
	assert.Equal(t, HealthStatusDegraded, resp.Checks["catalog"].Status)
	assert.Equal(t, "empty", resp.Checks["catalog"].Message)
}

func TestHealthChecker_CriticalFailureUnhealthy(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck(&HealthCheck{Name: "redis", CheckFunc: failing("connection refused"), Critical: true})

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, resp.Status)
}

func TestHealthChecker_CheckTimeout(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck(&HealthCheck{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		CheckFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, resp.Status)
	assert.Contains(t, resp.Checks["slow"].Message, "deadline")
}

func TestHealthHandler_StatusCodes(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck(&HealthCheck{Name: "ok", CheckFunc: passing()})

	rec := httptest.NewRecorder()
	hc.Handler()(rec, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, 200, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, HealthStatusHealthy, resp.Status)

	hc.RegisterCheck(&HealthCheck{Name: "down", CheckFunc: failing("gone"), Critical: true})
	rec = httptest.NewRecorder()
	hc.Handler()(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 503, rec.Code)
}
