package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateApp registers a new app under an account.
// Returns ErrDuplicate if an app with the same bundle identifier already
// exists for this account. The uniqueness check is the database constraint
// itself, so concurrent registrations for the same (account, bundle) pair
// cannot both succeed.
func (s *SQLiteStorage) CreateApp(ctx context.Context, accountID, bundleIdentifier string) (*App, error) {
	return createApp(ctx, s.db, accountID, bundleIdentifier)
}

func createApp(ctx context.Context, q dbtx, accountID, bundleIdentifier string) (*App, error) {
	id := uuid.New().String()

	_, err := q.ExecContext(ctx,
		"INSERT INTO apps (id, account_id, bundle_identifier) VALUES (?, ?, ?)",
		id, accountID, bundleIdentifier)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	return getAppByID(ctx, q, id)
}

// GetAppByID retrieves an app by ID.
// Returns ErrNotFound if the app doesn't exist.
func (s *SQLiteStorage) GetAppByID(ctx context.Context, id string) (*App, error) {
	return getAppByID(ctx, s.db, id)
}

func getAppByID(ctx context.Context, q dbtx, id string) (*App, error) {
	var a App

	err := q.QueryRowContext(ctx,
		"SELECT id, account_id, bundle_identifier, created_at FROM apps WHERE id = ?",
		id).
		Scan(&a.ID, &a.AccountID, &a.BundleIdentifier, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get app by ID: %w", err)
	}

	return &a, nil
}
