// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
	"encoding/json"
)

// Storage defines the interface for SQLite persistence operations.
type Storage interface {
	// Account operations
	GetAccountByEmail(ctx context.Context, emailAddress string) (*Account, error)

	// App operations
	CreateApp(ctx context.Context, accountID, bundleIdentifier string) (*App, error)
	GetAppByID(ctx context.Context, id string) (*App, error)

	// Token operations
	GetTokenByValue(ctx context.Context, value string) (*Token, error)
	IssueToken(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*Token, error)

	// Build operations
	AllocateBuild(ctx context.Context, appID string, metadata json.RawMessage) (*Build, error)
	InsertBuild(ctx context.Context, appID string, buildNumber int64, metadata json.RawMessage) (*Build, error)
	GetLastBuild(ctx context.Context, appID string) (*Build, error)
	GetBuildByNumber(ctx context.Context, appID string, buildNumber int64) (*Build, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
