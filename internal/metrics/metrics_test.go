package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestInitAndRecord verifies registration and that recorded values show up in
// the text exposition.
func TestInitAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()

	if err := Init(reg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	RecordRequest("POST", "/builds", "201")
	RecordRequestDuration("POST", "/builds", "201", 0.042)
	RecordAuthFailure("invalid_token")
	RecordBuildAllocated()
	RecordAllocationRetry()
	RecordTokenIssued()
	RecordMailFailure()

	text, err := GetMetricsText(reg)
	if err != nil {
		t.Fatalf("GetMetricsText failed: %v", err)
	}

	for _, want := range []string{
		`buildnumber_api_requests_total{method="POST",path="/builds",status="201"} 1`,
		`buildnumber_api_auth_failures_total{reason="invalid_token"} 1`,
		"buildnumber_api_builds_allocated_total 1",
		"buildnumber_api_allocation_retries_total 1",
		"buildnumber_api_tokens_issued_total 1",
		"buildnumber_api_mail_failures_total 1",
		"buildnumber_api_request_duration_seconds_count",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// TestInitDuplicateRegistration verifies a second Init against the same
// registry fails instead of silently double-registering.
func TestInitDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	if err := Init(reg); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	if err := Init(reg); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}
