package storage

import (
	"encoding/json"
	"time"
)

// Account is the identity unit, keyed by a normalized (lower-cased) email
// address. Accounts are created lazily on the first token request for an
// email and are never deleted.
type Account struct {
	ID           string
	EmailAddress string
	CreatedAt    time.Time
}

// App is a product registered under an account. The bundle identifier is
// unique per account, not globally.
type App struct {
	ID               string
	AccountID        string
	BundleIdentifier string
	CreatedAt        time.Time
}

// Token is an opaque credential scoped to exactly one (account, app) pair.
// The value is globally unique and stored verbatim: the protocol
// authenticates by exact value match (basic-auth username = token value).
type Token struct {
	ID        string
	AccountID string
	AppID     string
	Value     string
	CreatedAt time.Time
}

// Build is an immutable numbered record belonging to one app. Build numbers
// are unique per app and strictly increasing, starting at 1.
type Build struct {
	ID          string
	AppID       string
	BuildNumber int64
	Metadata    json.RawMessage
	CreatedAt   time.Time
}
