// Package api exposes the HTTP surface of the buildnumber service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buildnumber-dev/buildnumber/internal/counter"
	"github.com/buildnumber-dev/buildnumber/internal/issuance"
)

const version = "1.0.0"

// Pinger verifies backing-store connectivity for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	issuance *issuance.Service
	counter  *counter.Counter
	pinger   Pinger
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(issuer *issuance.Service, ctr *counter.Counter, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		issuance: issuer,
		counter:  ctr,
		pinger:   pinger,
		logger:   logger,
	}
}

// HandleHealth returns OK if the process is alive.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Response write errors are unrecoverable
	fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version)
}

// HandleReady returns OK if the service is ready to serve requests (DB connected).
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, ErrCodeInternalError, "database unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Response write errors are unrecoverable
	fmt.Fprint(w, `{"status":"ok"}`)
}
