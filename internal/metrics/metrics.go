// Package metrics provides Prometheus metrics collection for the service.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics - used by the application
	// Using atomic.Pointer for lock-free initialization checks on hot path metrics.
	requestsTotal          atomic.Pointer[prometheus.CounterVec]
	requestDuration        atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal      atomic.Pointer[prometheus.CounterVec]
	buildsAllocatedTotal   atomic.Pointer[prometheus.Counter]
	allocationRetriesTotal atomic.Pointer[prometheus.Counter]
	tokensIssuedTotal      atomic.Pointer[prometheus.Counter]
	mailFailuresTotal      atomic.Pointer[prometheus.Counter]
)

// Init initializes all Prometheus metrics and registers them with the provided registry.
// This should be called once at application startup.
func Init(reg prometheus.Registerer) error {
	// HTTP request counter: tracks all requests by method, path (normalized), and status code
	requestsTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildnumber",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestsTotalVec); err != nil {
		return fmt.Errorf("failed to register requestsTotal: %w", err)
	}

	// Request duration histogram: tracks latency distribution
	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildnumber",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestDurationVec); err != nil {
		return fmt.Errorf("failed to register requestDuration: %w", err)
	}

	// Auth failures counter: tracks failed authentication attempts
	authFailuresTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildnumber",
			Subsystem: "api",
			Name:      "auth_failures_total",
			Help:      "Total number of authentication failures",
		},
		[]string{"reason"},
	)
	if err := reg.Register(authFailuresTotalVec); err != nil {
		return fmt.Errorf("failed to register authFailuresTotal: %w", err)
	}

	buildsAllocated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buildnumber",
		Subsystem: "api",
		Name:      "builds_allocated_total",
		Help:      "Total number of build numbers allocated",
	})
	if err := reg.Register(buildsAllocated); err != nil {
		return fmt.Errorf("failed to register buildsAllocated: %w", err)
	}

	allocationRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buildnumber",
		Subsystem: "api",
		Name:      "allocation_retries_total",
		Help:      "Total number of build allocation attempts retried after a number collision",
	})
	if err := reg.Register(allocationRetries); err != nil {
		return fmt.Errorf("failed to register allocationRetries: %w", err)
	}

	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buildnumber",
		Subsystem: "api",
		Name:      "tokens_issued_total",
		Help:      "Total number of API tokens issued",
	})
	if err := reg.Register(tokensIssued); err != nil {
		return fmt.Errorf("failed to register tokensIssued: %w", err)
	}

	mailFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buildnumber",
		Subsystem: "api",
		Name:      "mail_failures_total",
		Help:      "Total number of welcome-mail dispatch failures",
	})
	if err := reg.Register(mailFailures); err != nil {
		return fmt.Errorf("failed to register mailFailures: %w", err)
	}

	// Store metrics in atomics for lock-free access in record functions
	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	authFailuresTotal.Store(authFailuresTotalVec)
	buildsAllocatedTotal.Store(&buildsAllocated)
	allocationRetriesTotal.Store(&allocationRetries)
	tokensIssuedTotal.Store(&tokensIssued)
	mailFailuresTotal.Store(&mailFailures)

	return nil
}

// RecordRequest increments the requests counter for the given method, path, and status code.
// The path should be normalized (e.g., "/builds/:n" instead of "/builds/123").
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request.
// Duration should be in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordAuthFailure increments the auth failures counter for the given reason.
// Common reasons: "missing_token", "invalid_token"
func RecordAuthFailure(reason string) {
	if counter := authFailuresTotal.Load(); counter != nil {
		counter.WithLabelValues(reason).Inc()
	}
}

// RecordBuildAllocated increments the allocated-builds counter.
func RecordBuildAllocated() {
	if counter := buildsAllocatedTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordAllocationRetry increments the allocation-retries counter.
func RecordAllocationRetry() {
	if counter := allocationRetriesTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordTokenIssued increments the issued-tokens counter.
func RecordTokenIssued() {
	if counter := tokensIssuedTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordMailFailure increments the mail-failures counter.
func RecordMailFailure() {
	if counter := mailFailuresTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// Handler returns an HTTP handler for Prometheus metrics in text format.
// This handler should be registered at /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GetMetricsText returns the Prometheus text-format output from a registry.
// This is useful for testing and debugging.
func GetMetricsText(reg prometheus.Gatherer) (string, error) {
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	body, err := io.ReadAll(w.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics output: %w", err)
	}

	return string(body), nil
}
