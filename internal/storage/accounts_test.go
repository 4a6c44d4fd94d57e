package storage

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

// TestGetAccountByEmailNotFound verifies the miss path returns ErrNotFound.
func TestGetAccountByEmailNotFound(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	_, err = s.GetAccountByEmail(ctx, "missing@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestFindOrCreateAccountIdempotent verifies repeated issuance for the same
// email reuses the account instead of creating a second one.
func TestFindOrCreateAccountIdempotent(t *testing.T) {
	t.Parallel()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	first, err := findOrCreateAccount(ctx, s.db, "a@x.com")
	if err != nil {
		t.Fatalf("first findOrCreateAccount failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected non-empty account ID")
	}
	if first.EmailAddress != "a@x.com" {
		t.Errorf("expected email 'a@x.com', got %q", first.EmailAddress)
	}

	second, err := findOrCreateAccount(ctx, s.db, "a@x.com")
	if err != nil {
		t.Fatalf("second findOrCreateAccount failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected same account on repeat call, got %q and %q", first.ID, second.ID)
	}
}
