package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// minBundleIdentifierLength matches the public contract: identifiers like
// "com" are too short to be real bundle identifiers.
const minBundleIdentifierLength = 3

// bundleIdentifierPattern restricts identifiers to the characters that appear
// in real bundle identifiers (reverse-DNS names, underscores, dashes).
var bundleIdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// CreateTokenRequest is the request body for POST /tokens.
type CreateTokenRequest struct {
	EmailAddress     string `json:"emailAddress"`
	BundleIdentifier string `json:"bundleIdentifier"`
}

// HandleCreateToken registers an app and issues its API token.
// POST /tokens
// Body: {"emailAddress": "...", "bundleIdentifier": "..."}
//
// Responds 201 with an empty JSON object: the token itself is delivered
// out-of-band via the welcome mail, never in the response.
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.EmailAddress)); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "emailAddress must be a valid email address")
		return
	}

	bundle := strings.TrimSpace(req.BundleIdentifier)
	if len(bundle) < minBundleIdentifierLength {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "bundleIdentifier must be at least 3 characters")
		return
	}
	if !bundleIdentifierPattern.MatchString(bundle) {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "bundleIdentifier may only contain letters, digits, dots, underscores and dashes")
		return
	}

	_, err := h.issuance.Issue(r.Context(), req.EmailAddress, bundle)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			WriteError(w, http.StatusConflict, ErrCodeConflict,
				"there is already an app with the same bundle identifier for this account")
			return
		}
		h.logger.Error("token issuance failed", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	//nolint:errcheck // Response write errors are unrecoverable
	_, _ = w.Write([]byte("{}"))
}
