package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildnumber-dev/buildnumber/internal/storage"
	"github.com/buildnumber-dev/buildnumber/internal/testutil/mockstore"
)

func protectedHandler(t *testing.T, captured **Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func middlewareValidator() *Validator {
	return NewValidator(&mockstore.MockStorage{
		GetTokenByValueFunc: func(ctx context.Context, value string) (*storage.Token, error) {
			if value == validTokenValue {
				return &storage.Token{ID: "t-1", AccountID: "acct-1", AppID: "app-1", Value: value}, nil
			}
			return nil, storage.ErrNotFound
		},
	})
}

// TestMiddlewareMissingCredentials verifies requests without basic auth get
// 401 plus the basic-auth challenge.
func TestMiddlewareMissingCredentials(t *testing.T) {
	t.Parallel()

	var principal *Principal
	handler := Middleware(middlewareValidator())(protectedHandler(t, &principal))

	req := httptest.NewRequest(http.MethodPost, "/builds", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
	if principal != nil {
		t.Error("handler must not run without credentials")
	}
}

// TestMiddlewareInvalidToken verifies unknown tokens get 401.
func TestMiddlewareInvalidToken(t *testing.T) {
	t.Parallel()

	var principal *Principal
	handler := Middleware(middlewareValidator())(protectedHandler(t, &principal))

	req := httptest.NewRequest(http.MethodPost, "/builds", nil)
	req.SetBasicAuth("not-a-real-token-but-long-enough-0123456789", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if principal != nil {
		t.Error("handler must not run with an invalid token")
	}
}

// TestMiddlewareValidToken verifies the principal lands in the request
// context; the password part of basic auth is ignored.
func TestMiddlewareValidToken(t *testing.T) {
	t.Parallel()

	var principal *Principal
	handler := Middleware(middlewareValidator())(protectedHandler(t, &principal))

	req := httptest.NewRequest(http.MethodPost, "/builds", nil)
	req.SetBasicAuth(validTokenValue, "ignored")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if principal == nil {
		t.Fatal("expected principal in context")
	}
	if principal.AccountID != "acct-1" || principal.AppID != "app-1" {
		t.Errorf("expected principal acct-1/app-1, got %+v", principal)
	}
}

// TestPrincipalFromContextEmpty verifies the accessor is nil-safe.
func TestPrincipalFromContextEmpty(t *testing.T) {
	t.Parallel()

	if p := PrincipalFromContext(context.Background()); p != nil {
		t.Errorf("expected nil principal, got %+v", p)
	}
}
