package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// GetAccountByEmail retrieves an account by its normalized email address.
// Returns ErrNotFound if no account exists for the email.
func (s *SQLiteStorage) GetAccountByEmail(ctx context.Context, emailAddress string) (*Account, error) {
	return getAccountByEmail(ctx, s.db, emailAddress)
}

func getAccountByEmail(ctx context.Context, q dbtx, emailAddress string) (*Account, error) {
	var a Account

	err := q.QueryRowContext(ctx,
		"SELECT id, email_address, created_at FROM accounts WHERE email_address = ?",
		emailAddress).
		Scan(&a.ID, &a.EmailAddress, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &a, nil
}

// findOrCreateAccount returns the existing account for the email or creates
// a new one. Idempotent: repeated calls with the same email reuse the account.
// A concurrent insert of the same email is resolved by re-reading after a
// unique violation.
func findOrCreateAccount(ctx context.Context, q dbtx, emailAddress string) (*Account, error) {
	account, err := getAccountByEmail(ctx, q, emailAddress)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := uuid.New().String()
	_, err = q.ExecContext(ctx,
		"INSERT INTO accounts (id, email_address) VALUES (?, ?)",
		id, emailAddress)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race to another issuance for the same email
			return getAccountByEmail(ctx, q, emailAddress)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return getAccountByEmail(ctx, q, emailAddress)
}
