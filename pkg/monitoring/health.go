package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check result
type HealthCheck struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status    HealthStatus   `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Checks    []HealthCheck  `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// HealthCheckFunc is a single component probe
type HealthCheckFunc func(ctx context.Context) HealthCheck

// HealthManager runs registered probes and aggregates a report
type HealthManager struct {
	serviceName string
	checks      map[string]HealthCheckFunc
	mu          sync.RWMutex
	timeout     time.Duration
}

// NewHealthManager creates a new health manager
func NewHealthManager(serviceName string) *HealthManager {
	return &HealthManager{
		serviceName: serviceName,
		checks:      make(map[string]HealthCheckFunc),
		timeout:     10 * time.Second,
	}
}

// RegisterCheck registers a named probe
func (hm *HealthManager) RegisterCheck(name string, check HealthCheckFunc) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[name] = check
}

// CheckHealth runs all probes concurrently and returns a report
func (hm *HealthManager) CheckHealth(ctx context.Context) *HealthReport {
	hm.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(hm.checks))
	for name, check := range hm.checks {
		checks[name] = check
	}
	timeout := hm.timeout
	hm.mu.RUnlock()

	report := &HealthReport{
		Service:   hm.serviceName,
		Timestamp: time.Now(),
		Checks:    make([]HealthCheck, 0, len(checks)),
		Summary:   make(map[string]int),
	}

	resultChan := make(chan HealthCheck, len(checks))
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := check(checkCtx)
			result.Name = name
			result.LastChecked = start
			result.Duration = time.Since(start)

			resultChan <- result
		}(name, check)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		report.Checks = append(report.Checks, result)
		report.Summary[string(result.Status)]++
	}

	if report.Summary[string(HealthStatusUnhealthy)] > 0 {
		report.Status = HealthStatusUnhealthy
	} else if report.Summary[string(HealthStatusDegraded)] > 0 {
		report.Status = HealthStatusDegraded
	} else {
		report.Status = HealthStatusHealthy
	}

	return report
}

// HTTPHandler returns an HTTP handler serving the aggregated report
func (hm *HealthManager) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hm.CheckHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(report)
	}
}

// HTTPProbe returns a probe that checks an upstream HTTP endpoint
func HTTPProbe(url string, timeout time.Duration) HealthCheckFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) HealthCheck {
		check := HealthCheck{
			Details: map[string]interface{}{"url": url},
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			check.Status = HealthStatusUnhealthy
			check.Message = fmt.Sprintf("Failed to create request: %v", err)
			return check
		}

		resp, err := client.Do(req)
		if err != nil {
			check.Status = HealthStatusUnhealthy
			check.Message = fmt.Sprintf("HTTP request failed: %v", err)
			return check
		}
		defer resp.Body.Close()

		check.Details["status_code"] = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			check.Status = HealthStatusHealthy
			check.Message = "Upstream reachable"
		case resp.StatusCode >= 500:
			check.Status = HealthStatusUnhealthy
			check.Message = fmt.Sprintf("Upstream returned %d", resp.StatusCode)
		default:
			check.Status = HealthStatusDegraded
			check.Message = fmt.Sprintf("Upstream returned %d", resp.StatusCode)
		}

		return check
	}
}
