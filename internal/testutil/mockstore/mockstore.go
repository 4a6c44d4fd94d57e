// Package mockstore provides a configurable mock implementation of the
// storage interface for testing.
//
// The MockStorage type uses function fields for each method, allowing tests
// to customize behavior as needed while providing sensible defaults for
// methods that aren't customized.
package mockstore

import (
	"context"
	"encoding/json"

	"github.com/buildnumber-dev/buildnumber/internal/storage"
)

// MockStorage is a configurable mock implementation of storage.Storage.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a sensible default value.
type MockStorage struct {
	// Account operations
	GetAccountByEmailFunc func(ctx context.Context, emailAddress string) (*storage.Account, error)

	// App operations
	CreateAppFunc  func(ctx context.Context, accountID, bundleIdentifier string) (*storage.App, error)
	GetAppByIDFunc func(ctx context.Context, id string) (*storage.App, error)

	// Token operations
	GetTokenByValueFunc func(ctx context.Context, value string) (*storage.Token, error)
	IssueTokenFunc      func(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*storage.Token, error)

	// Build operations
	AllocateBuildFunc    func(ctx context.Context, appID string, metadata json.RawMessage) (*storage.Build, error)
	InsertBuildFunc      func(ctx context.Context, appID string, buildNumber int64, metadata json.RawMessage) (*storage.Build, error)
	GetLastBuildFunc     func(ctx context.Context, appID string) (*storage.Build, error)
	GetBuildByNumberFunc func(ctx context.Context, appID string, buildNumber int64) (*storage.Build, error)

	// Lifecycle
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

// GetAccountByEmail retrieves an account by email.
func (m *MockStorage) GetAccountByEmail(ctx context.Context, emailAddress string) (*storage.Account, error) {
	if m.GetAccountByEmailFunc != nil {
		return m.GetAccountByEmailFunc(ctx, emailAddress)
	}
	return nil, storage.ErrNotFound
}

// CreateApp registers an app.
func (m *MockStorage) CreateApp(ctx context.Context, accountID, bundleIdentifier string) (*storage.App, error) {
	if m.CreateAppFunc != nil {
		return m.CreateAppFunc(ctx, accountID, bundleIdentifier)
	}
	return &storage.App{ID: "app-1", AccountID: accountID, BundleIdentifier: bundleIdentifier}, nil
}

// GetAppByID retrieves an app by ID.
func (m *MockStorage) GetAppByID(ctx context.Context, id string) (*storage.App, error) {
	if m.GetAppByIDFunc != nil {
		return m.GetAppByIDFunc(ctx, id)
	}
	return nil, storage.ErrNotFound
}

// GetTokenByValue retrieves a token by value.
func (m *MockStorage) GetTokenByValue(ctx context.Context, value string) (*storage.Token, error) {
	if m.GetTokenByValueFunc != nil {
		return m.GetTokenByValueFunc(ctx, value)
	}
	return nil, storage.ErrNotFound
}

// IssueToken runs the issuance transaction.
func (m *MockStorage) IssueToken(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*storage.Token, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(ctx, emailAddress, bundleIdentifier, tokenValue)
	}
	return &storage.Token{
		ID:        "token-1",
		AccountID: "account-1",
		AppID:     "app-1",
		Value:     tokenValue,
	}, nil
}

// AllocateBuild allocates the next build number.
func (m *MockStorage) AllocateBuild(ctx context.Context, appID string, metadata json.RawMessage) (*storage.Build, error) {
	if m.AllocateBuildFunc != nil {
		return m.AllocateBuildFunc(ctx, appID, metadata)
	}
	return &storage.Build{ID: "build-1", AppID: appID, BuildNumber: 1, Metadata: json.RawMessage("{}")}, nil
}

// InsertBuild persists a build with an explicit number.
func (m *MockStorage) InsertBuild(ctx context.Context, appID string, buildNumber int64, metadata json.RawMessage) (*storage.Build, error) {
	if m.InsertBuildFunc != nil {
		return m.InsertBuildFunc(ctx, appID, buildNumber, metadata)
	}
	return &storage.Build{ID: "build-1", AppID: appID, BuildNumber: buildNumber, Metadata: json.RawMessage("{}")}, nil
}

// GetLastBuild returns the latest build.
func (m *MockStorage) GetLastBuild(ctx context.Context, appID string) (*storage.Build, error) {
	if m.GetLastBuildFunc != nil {
		return m.GetLastBuildFunc(ctx, appID)
	}
	return nil, storage.ErrNotFound
}

// GetBuildByNumber returns a build by exact number.
func (m *MockStorage) GetBuildByNumber(ctx context.Context, appID string, buildNumber int64) (*storage.Build, error) {
	if m.GetBuildByNumberFunc != nil {
		return m.GetBuildByNumberFunc(ctx, appID, buildNumber)
	}
	return nil, storage.ErrNotFound
}

// Ping verifies connectivity.
func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close closes the store.
func (m *MockStorage) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
