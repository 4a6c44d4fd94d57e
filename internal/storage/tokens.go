package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// GetTokenByValue retrieves a token by its exact value.
// This is used during authentication to resolve the presented credential to
// its owning (account, app) pair.
// Returns ErrNotFound if the value doesn't exist.
func (s *SQLiteStorage) GetTokenByValue(ctx context.Context, value string) (*Token, error) {
	var t Token

	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, app_id, value, created_at FROM tokens WHERE value = ?",
		value).
		Scan(&t.ID, &t.AccountID, &t.AppID, &t.Value, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token by value: %w", err)
	}

	return &t, nil
}

// IssueToken runs the whole issuance sequence in a single transaction:
// find-or-create the account for the email, register the app, and persist the
// token bound to both. A bundle-identifier conflict rolls everything back and
// returns ErrDuplicate, so no half-created app or token survives a failed
// issuance. Inputs are expected to be normalized by the caller.
func (s *SQLiteStorage) IssueToken(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*Token, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck

	account, err := findOrCreateAccount(ctx, tx, emailAddress)
	if err != nil {
		return nil, err
	}

	app, err := createApp(ctx, tx, account.ID, bundleIdentifier)
	if err != nil {
		// ErrDuplicate propagates unchanged; the rollback discards a
		// freshly created account row, which is fine because the next
		// attempt recreates it idempotently.
		return nil, err
	}

	token, err := createToken(ctx, tx, account.ID, app.ID, tokenValue)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit issuance: %w", err)
	}

	return token, nil
}

func createToken(ctx context.Context, q dbtx, accountID, appID, value string) (*Token, error) {
	id := uuid.New().String()

	_, err := q.ExecContext(ctx,
		"INSERT INTO tokens (id, account_id, app_id, value) VALUES (?, ?, ?, ?)",
		id, accountID, appID, value)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	var t Token
	err = q.QueryRowContext(ctx,
		"SELECT id, account_id, app_id, value, created_at FROM tokens WHERE id = ?",
		id).
		Scan(&t.ID, &t.AccountID, &t.AppID, &t.Value, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back token: %w", err)
	}

	return &t, nil
}
