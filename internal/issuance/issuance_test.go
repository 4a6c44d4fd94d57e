package issuance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/buildnumber-dev/buildnumber/internal/auth"
	"github.com/buildnumber-dev/buildnumber/internal/storage"
	"github.com/buildnumber-dev/buildnumber/internal/testutil/mockstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSender captures dispatched mails and optionally fails.
type recordingSender struct {
	to    string
	token string
	err   error
}

func (r *recordingSender) SendTokenMail(ctx context.Context, to, tokenValue string) error {
	r.to = to
	r.token = tokenValue
	return r.err
}

// TestIssueNormalizesAndGeneratesToken verifies normalization and the
// "{bundle}-{64 hex}" token shape.
func TestIssueNormalizesAndGeneratesToken(t *testing.T) {
	t.Parallel()

	var gotEmail, gotBundle string
	store := &mockstore.MockStorage{
		IssueTokenFunc: func(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*storage.Token, error) {
			gotEmail = emailAddress
			gotBundle = bundleIdentifier
			return &storage.Token{ID: "t-1", AccountID: "acct-1", AppID: "app-1", Value: tokenValue}, nil
		},
	}
	sender := &recordingSender{}

	s := New(store, sender, testLogger())

	value, err := s.Issue(context.Background(), " A@X.com ", "Com.Example.MyApp")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if gotEmail != "a@x.com" {
		t.Errorf("expected normalized email 'a@x.com', got %q", gotEmail)
	}
	if gotBundle != "com.example.myapp" {
		t.Errorf("expected normalized bundle 'com.example.myapp', got %q", gotBundle)
	}

	prefix := "com.example.myapp-"
	if !strings.HasPrefix(value, prefix) {
		t.Fatalf("expected token prefixed with bundle, got %q", value)
	}
	random := strings.TrimPrefix(value, prefix)
	if len(random) != 64 {
		t.Errorf("expected 64 hex chars of randomness, got %d", len(random))
	}
	for _, c := range random {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("expected hex randomness, got %q", random)
		}
	}
	if len(value) < auth.MinTokenLength {
		t.Errorf("generated token shorter than the credential check minimum: %d", len(value))
	}
}

// TestIssueSendsWelcomeMail verifies the mail goes to the normalized address
// with the issued token.
func TestIssueSendsWelcomeMail(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	s := New(&mockstore.MockStorage{}, sender, testLogger())

	value, err := s.Issue(context.Background(), "A@X.com", "com.x")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if sender.to != "a@x.com" {
		t.Errorf("expected mail to 'a@x.com', got %q", sender.to)
	}
	if sender.token != value {
		t.Errorf("expected mail to carry the issued token")
	}
}

// TestIssueMailFailureDoesNotFailIssuance verifies a committed issuance
// survives a mail dispatch failure.
func TestIssueMailFailureDoesNotFailIssuance(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("mailgun down")}
	s := New(&mockstore.MockStorage{}, sender, testLogger())

	value, err := s.Issue(context.Background(), "a@x.com", "com.x")
	if err != nil {
		t.Fatalf("expected issuance to succeed despite mail failure, got %v", err)
	}
	if value == "" {
		t.Error("expected a token value")
	}
}

// TestIssuePropagatesConflict verifies ErrDuplicate passes through and no
// mail is sent for a failed issuance.
func TestIssuePropagatesConflict(t *testing.T) {
	t.Parallel()

	store := &mockstore.MockStorage{
		IssueTokenFunc: func(ctx context.Context, emailAddress, bundleIdentifier, tokenValue string) (*storage.Token, error) {
			return nil, storage.ErrDuplicate
		},
	}
	sender := &recordingSender{}
	s := New(store, sender, testLogger())

	_, err := s.Issue(context.Background(), "a@x.com", "com.x")
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if sender.to != "" {
		t.Error("expected no mail for a failed issuance")
	}
}
