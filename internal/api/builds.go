package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/buildnumber-dev/buildnumber/internal/auth"
	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// outputBuildNumber is the only accepted value for the output query param.
// It switches the response from the JSON object to the bare number as text.
const outputBuildNumber = "buildNumber"

// CreateBuildRequest is the request body for POST /builds. The whole body is
// optional; an absent or empty body means an empty metadata document.
type CreateBuildRequest struct {
	Metadata json.RawMessage `json:"metadata"`
}

// BuildResponse is the JSON shape for a single build.
type BuildResponse struct {
	BuildNumber int64           `json:"buildNumber"`
	Metadata    json.RawMessage `json:"metadata"`
}

// HandleCreateBuild allocates the next build number for the authenticated app.
// POST /builds
// Body: {"metadata": {...}} (optional)
func (h *Handler) HandleCreateBuild(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	if !validOutputParam(r) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "output must be 'buildNumber' if present")
		return
	}

	metadata, ok := decodeMetadata(w, r)
	if !ok {
		return
	}

	build, err := h.counter.Allocate(r.Context(), principal.AppID, metadata)
	if err != nil {
		h.logger.Error("build allocation failed", "app_id", principal.AppID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.respondBuild(w, r, http.StatusCreated, build)
}

// HandleLastBuild returns the build with the highest build number.
// GET /builds/last
func (h *Handler) HandleLastBuild(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	if !validOutputParam(r) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "output must be 'buildNumber' if present")
		return
	}

	build, err := h.counter.Latest(r.Context(), principal.AppID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeNotFound, "couldn't find a build for this app")
			return
		}
		h.logger.Error("last build lookup failed", "app_id", principal.AppID, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.respondBuild(w, r, http.StatusOK, build)
}

// HandleGetBuild returns the build with an exact build number.
// GET /builds/{buildNumber}
func (h *Handler) HandleGetBuild(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	if !validOutputParam(r) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "output must be 'buildNumber' if present")
		return
	}

	buildNumber, err := strconv.ParseInt(chi.URLParam(r, "buildNumber"), 10, 64)
	if err != nil || buildNumber < 1 {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "buildNumber must be a positive integer")
		return
	}

	build, err := h.counter.ByNumber(r.Context(), principal.AppID, buildNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeNotFound, "couldn't find a build with this build number")
			return
		}
		h.logger.Error("build lookup failed", "app_id", principal.AppID, "build_number", buildNumber, "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	h.respondBuild(w, r, http.StatusOK, build)
}

// decodeMetadata reads the optional request body. Returns the metadata
// document (nil for an absent body) and whether decoding succeeded; on
// failure the error response has already been written.
func decodeMetadata(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read request body")
		return nil, false
	}

	// Empty or null body means empty metadata
	if len(body) == 0 || string(body) == "null" {
		return nil, true
	}

	var req CreateBuildRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return nil, false
	}

	if len(req.Metadata) == 0 || string(req.Metadata) == "null" {
		return nil, true
	}

	// Metadata must be a JSON object
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(req.Metadata, &obj); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "metadata must be a JSON object")
		return nil, false
	}

	return req.Metadata, true
}

// respondBuild writes a build either as the JSON object or, with
// output=buildNumber, as the bare number in plain text.
func (h *Handler) respondBuild(w http.ResponseWriter, r *http.Request, status int, build *storage.Build) {
	if r.URL.Query().Get("output") == outputBuildNumber {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		//nolint:errcheck // Response write errors are unrecoverable
		_, _ = w.Write([]byte(strconv.FormatInt(build.BuildNumber, 10)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := BuildResponse{
		BuildNumber: build.BuildNumber,
		Metadata:    build.Metadata,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// Response already started, nothing we can do
		_ = err
	}
}

// validOutputParam accepts an absent output param or output=buildNumber.
func validOutputParam(r *http.Request) bool {
	output := r.URL.Query().Get("output")
	return output == "" || output == outputBuildNumber
}
