package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthManagerAggregation(t *testing.T) {
	healthy := func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusHealthy}
	}
	degraded := func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusDegraded}
	}
	unhealthy := func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusUnhealthy}
	}

	t.Run("all healthy", func(t *testing.T) {
		hm := NewHealthManager("test-service")
		hm.RegisterCheck("a", healthy)
		hm.RegisterCheck("b", healthy)

		report := hm.CheckHealth(context.Background())
		assert.Equal(t, HealthStatusHealthy, report.Status)
		assert.Equal(t, "test-service", report.Service)
		assert.Len(t, report.Checks, 2)
	})

	t.Run("one degraded degrades the report", func(t *testing.T) {
		hm := NewHealthManager("test-service")
		hm.RegisterCheck("a", healthy)
		hm.RegisterCheck("b", degraded)

		report := hm.CheckHealth(context.Background())
		assert.Equal(t, HealthStatusDegraded, report.Status)
	})

	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		hm := NewHealthManager("test-service")
		hm.RegisterCheck("a", degraded)
		hm.RegisterCheck("b", unhealthy)

		report := hm.CheckHealth(context.Background())
		assert.Equal(t, HealthStatusUnhealthy, report.Status)
	})
}

func TestHealthHTTPHandler(t *testing.T) {
	hm := NewHealthManager("test-service")
	hm.RegisterCheck("down", func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusUnhealthy, Message: "boom"}
	})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	hm.HTTPHandler()(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestHTTPProbe(t *testing.T) {
	t.Run("healthy upstream", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer upstream.Close()

		check := HTTPProbe(upstream.URL, time.Second)(context.Background())
		assert.Equal(t, HealthStatusHealthy, check.Status)
	})

	t.Run("failing upstream", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer upstream.Close()

		check := HTTPProbe(upstream.URL, time.Second)(context.Background())
		assert.Equal(t, HealthStatusUnhealthy, check.Status)
	})
}
