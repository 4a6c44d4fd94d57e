package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// emptyMetadata is the stored default when a build has no metadata.
const emptyMetadata = "{}"

// AllocateBuild assigns the next build number for an app: it reads the
// current maximum build number and inserts max+1 in one transaction.
//
// This is a single attempt. If a concurrent allocation for the same app wins
// the race, the UNIQUE (app_id, build_number) constraint rejects the insert
// and ErrDuplicate is returned; the caller retries the whole cycle. A failed
// attempt leaves no partial build row, so retrying is safe and leaves no gap.
func (s *SQLiteStorage) AllocateBuild(ctx context.Context, appID string, metadata json.RawMessage) (*Build, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck

	var max int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(build_number), 0) FROM builds WHERE app_id = ?",
		appID).
		Scan(&max)
	if err != nil {
		return nil, fmt.Errorf("failed to read max build number: %w", err)
	}

	build, err := insertBuild(ctx, tx, appID, max+1, metadata)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit build: %w", err)
	}

	return build, nil
}

// InsertBuild persists a build with an explicit build number. This is the
// seeding path (e.g. importing a history or skipping ahead); normal
// allocation goes through AllocateBuild.
// Returns ErrDuplicate if the build number is already taken for this app.
func (s *SQLiteStorage) InsertBuild(ctx context.Context, appID string, buildNumber int64, metadata json.RawMessage) (*Build, error) {
	return insertBuild(ctx, s.db, appID, buildNumber, metadata)
}

func insertBuild(ctx context.Context, q dbtx, appID string, buildNumber int64, metadata json.RawMessage) (*Build, error) {
	if len(metadata) == 0 {
		metadata = json.RawMessage(emptyMetadata)
	}

	id := uuid.New().String()
	_, err := q.ExecContext(ctx,
		"INSERT INTO builds (id, app_id, build_number, metadata) VALUES (?, ?, ?, ?)",
		id, appID, buildNumber, string(metadata))

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert build: %w", err)
	}

	return getBuildByID(ctx, q, id)
}

// GetLastBuild returns the build with the highest build number for an app.
// Returns ErrNotFound if the app has no builds yet.
func (s *SQLiteStorage) GetLastBuild(ctx context.Context, appID string) (*Build, error) {
	var b Build
	var metadata string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, app_id, build_number, metadata, created_at FROM builds WHERE app_id = ? ORDER BY build_number DESC LIMIT 1",
		appID).
		Scan(&b.ID, &b.AppID, &b.BuildNumber, &metadata, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last build: %w", err)
	}

	b.Metadata = json.RawMessage(metadata)
	return &b, nil
}

// GetBuildByNumber retrieves a build by its exact build number.
// Returns ErrNotFound if no such build exists for the app.
func (s *SQLiteStorage) GetBuildByNumber(ctx context.Context, appID string, buildNumber int64) (*Build, error) {
	var b Build
	var metadata string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, app_id, build_number, metadata, created_at FROM builds WHERE app_id = ? AND build_number = ?",
		appID, buildNumber).
		Scan(&b.ID, &b.AppID, &b.BuildNumber, &metadata, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get build by number: %w", err)
	}

	b.Metadata = json.RawMessage(metadata)
	return &b, nil
}

func getBuildByID(ctx context.Context, q dbtx, id string) (*Build, error) {
	var b Build
	var metadata string

	err := q.QueryRowContext(ctx,
		"SELECT id, app_id, build_number, metadata, created_at FROM builds WHERE id = ?",
		id).
		Scan(&b.ID, &b.AppID, &b.BuildNumber, &metadata, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read back build: %w", err)
	}

	b.Metadata = json.RawMessage(metadata)
	return &b, nil
}
