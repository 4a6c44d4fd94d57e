package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMailgunSendTokenMail verifies the request shape against a mock Mailgun.
func TestMailgunSendTokenMail(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotUser string
		gotPass string
		gotForm map[string]string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = map[string]string{
			"from":    r.PostFormValue("from"),
			"to":      r.PostFormValue("to"),
			"subject": r.PostFormValue("subject"),
			"text":    r.PostFormValue("text"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "key-secret", "buildnumber.dev <welcome@buildnumber.dev>",
		WithBaseURL(srv.URL))

	err := m.SendTokenMail(context.Background(), "a@x.com", "com.x-deadbeef")
	if err != nil {
		t.Fatalf("SendTokenMail failed: %v", err)
	}

	if gotPath != "/mg.example.com/messages" {
		t.Errorf("expected messages endpoint for the domain, got %q", gotPath)
	}
	if gotUser != "api" || gotPass != "key-secret" {
		t.Errorf("expected basic auth api/key-secret, got %q/%q", gotUser, gotPass)
	}
	if gotForm["to"] != "a@x.com" {
		t.Errorf("expected recipient 'a@x.com', got %q", gotForm["to"])
	}
	if gotForm["from"] != "buildnumber.dev <welcome@buildnumber.dev>" {
		t.Errorf("unexpected from: %q", gotForm["from"])
	}
	if gotForm["subject"] != mailSubject {
		t.Errorf("unexpected subject: %q", gotForm["subject"])
	}
	if !strings.Contains(gotForm["text"], "com.x-deadbeef") {
		t.Errorf("expected body to contain the token value, got %q", gotForm["text"])
	}
}

// TestMailgunErrorStatus verifies non-2xx responses become errors.
func TestMailgunErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "wrong-key", "welcome@buildnumber.dev", WithBaseURL(srv.URL))

	err := m.SendTokenMail(context.Background(), "a@x.com", "com.x-deadbeef")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status in error, got %v", err)
	}
}

// TestNopSender verifies the no-op sender never fails.
func TestNopSender(t *testing.T) {
	t.Parallel()

	if err := (Nop{}).SendTokenMail(context.Background(), "a@x.com", "value"); err != nil {
		t.Errorf("Nop sender returned error: %v", err)
	}
}
