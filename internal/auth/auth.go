// Package auth resolves presented API tokens to their (account, app) principal.
package auth

import (
	"context"
	"errors"

	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// MinTokenLength is the cheapest possible rejection: generated token values
// are "{bundle}-{64 hex chars}", so anything shorter than 32 characters can
// never match and is rejected before touching storage.
const MinTokenLength = 32

// ErrInvalidToken indicates the presented value is missing, too short, or
// unknown. It deliberately doesn't distinguish the three cases.
var ErrInvalidToken = errors.New("auth: invalid token")

// Principal identifies the account and app a request is scoped to.
type Principal struct {
	AccountID string
	AppID     string
}

// Storage is the subset of storage operations the validator needs.
type Storage interface {
	GetTokenByValue(ctx context.Context, value string) (*storage.Token, error)
}

// Validator resolves token values to principals. Read-only, no side effects.
type Validator struct {
	storage Storage
}

// NewValidator creates a new Validator.
func NewValidator(s Storage) *Validator {
	return &Validator{storage: s}
}

// Authenticate resolves a presented token value to its principal.
// Returns ErrInvalidToken for values that fail the length check or don't
// exist in storage; storage failures surface unchanged.
func (v *Validator) Authenticate(ctx context.Context, value string) (*Principal, error) {
	if len(value) < MinTokenLength {
		return nil, ErrInvalidToken
	}

	token, err := v.storage.GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Principal{AccountID: token.AccountID, AppID: token.AppID}, nil
}
