package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"
)

const (
	// DefaultBaseURL is the default base URL for the Mailgun messages API.
	DefaultBaseURL = "https://api.mailgun.net/v3"

	mailSubject = "Your buildnumber.dev API token"
)

// welcomeMail is the plain-text body of the token notification.
var welcomeMail = template.Must(template.New("welcome").Parse(`Hello,

Here is your buildnumber.dev API token:

    {{.TokenValue}}

Use it as the basic-auth username on every request. Keep it somewhere safe:
it is shown only in this email.

POST to /api/builds to get your next build number.

— buildnumber.dev
`))

// Mailgun sends mail through the Mailgun HTTP API.
type Mailgun struct {
	baseURL    string
	domain     string
	apiKey     string
	from       string
	httpClient *http.Client
}

// Option configures a Mailgun client.
type Option func(*Mailgun)

// WithBaseURL sets a custom base URL (useful for testing with mock server).
func WithBaseURL(url string) Option {
	return func(m *Mailgun) {
		m.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Mailgun) {
		m.httpClient = client
	}
}

// NewMailgun creates a Mailgun sender for the given sending domain.
func NewMailgun(domain, apiKey, from string, opts ...Option) *Mailgun {
	m := &Mailgun{
		baseURL:    DefaultBaseURL,
		domain:     domain,
		apiKey:     apiKey,
		from:       from,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SendTokenMail renders the welcome mail and posts it to the Mailgun
// messages endpoint for the configured domain.
func (m *Mailgun) SendTokenMail(ctx context.Context, to, tokenValue string) error {
	var body strings.Builder
	if err := welcomeMail.Execute(&body, struct{ TokenValue string }{tokenValue}); err != nil {
		return fmt.Errorf("failed to render welcome mail: %w", err)
	}

	form := url.Values{}
	form.Set("from", m.from)
	form.Set("to", to)
	form.Set("subject", mailSubject)
	form.Set("text", body.String())

	endpoint := m.baseURL + "/" + m.domain + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Include a snippet of the response for diagnosis; Mailgun errors
		// are short JSON messages.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck
		return fmt.Errorf("mailgun returned status %d: %s", resp.StatusCode, string(snippet))
	}

	return nil
}
