package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "magic link email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger.With("component", "email")}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// MagicLink renders the sign-in email for tokenValue. base is the page that
// collects the token and posts it to /auth/validate.
type MagicLink struct {
	base string
	ttl  time.Duration
}

func NewMagicLink(base string, ttl time.Duration) *MagicLink {
	return &MagicLink{base: base, ttl: ttl}
}

const MagicLinkSubject = "Your sign-in link"

func (m *MagicLink) URL(tokenValue string) string {
	u, err := url.Parse(m.base)
	if err != nil {
		return m.base + "?token=" + url.QueryEscape(tokenValue)
	}
	q := u.Query()
	q.Set("token", tokenValue)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *MagicLink) Body(tokenValue string) string {
	link := html.EscapeString(m.URL(tokenValue))
	return fmt.Sprintf(
		`<p>Click the link below to sign in (expires in %d minutes):</p><p><a href="%s">%s</a></p>`+
			`<p>Or paste this token into the app:</p><p><code>%s</code></p>`,
		int(m.ttl.Minutes()), link, link, html.EscapeString(tokenValue),
	)
}
