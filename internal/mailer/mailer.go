// Package mailer delivers the welcome email containing a freshly issued token.
package mailer

import "context"

// Sender dispatches the token notification to a recipient. The issuance
// workflow commits before calling Send, so implementations may fail without
// affecting the issued token.
type Sender interface {
	SendTokenMail(ctx context.Context, to, tokenValue string) error
}

// Nop is a Sender that drops mail. Used when no mail provider is configured
// (local development, tests).
type Nop struct{}

// SendTokenMail does nothing.
func (Nop) SendTokenMail(ctx context.Context, to, tokenValue string) error {
	return nil
}
