// Package issuance implements the signup workflow: account lookup or
// creation, app registration, token generation, and the welcome mail.
package issuance

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildnumber-dev/buildnumber/internal/mailer"
	"github.com/buildnumber-dev/buildnumber/internal/metrics"
	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// tokenRandomBytes is the entropy behind each token value. 32 bytes hex-encode
// to 64 characters, giving token values of the form "{bundle}-{64 hex chars}".
const tokenRandomBytes = 32

// Storage is the subset of storage operations the workflow needs.
type Storage interface {
	IssueToken(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*storage.Token, error)
}

// Service runs the issuance workflow.
type Service struct {
	storage Storage
	mailer  mailer.Sender
	logger  *slog.Logger
}

// New creates a Service.
func New(s Storage, m mailer.Sender, logger *slog.Logger) *Service {
	return &Service{storage: s, mailer: m, logger: logger}
}

// Issue normalizes the email address and bundle identifier, creates (or
// reuses) the account, registers the app, and persists a fresh token — all in
// one storage transaction. Returns storage.ErrDuplicate unchanged when the
// app already exists for this account.
//
// The welcome mail is dispatched only after the transaction has committed; a
// mail failure is logged and counted but never rolls back the issued token.
func (s *Service) Issue(ctx context.Context, emailAddress, bundleIdentifier string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(emailAddress))
	bundle := strings.ToLower(strings.TrimSpace(bundleIdentifier))

	value, err := generateTokenValue(bundle)
	if err != nil {
		return "", err
	}

	token, err := s.storage.IssueToken(ctx, email, bundle, value)
	if err != nil {
		return "", err
	}
	metrics.RecordTokenIssued()

	if err := s.mailer.SendTokenMail(ctx, email, token.Value); err != nil {
		metrics.RecordMailFailure()
		s.logger.Error("welcome mail dispatch failed",
			"email", email,
			"bundle_identifier", bundle,
			"error", err,
		)
	}

	return token.Value, nil
}

// generateTokenValue builds a token value of the form "{bundle}-{64 hex}".
func generateTokenValue(bundleIdentifier string) (string, error) {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return bundleIdentifier + "-" + hex.EncodeToString(buf), nil
}
