// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mail delivers password reset links.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/resend/resend-go/v2"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// sender is the part of the Resend client used here.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendNotifier sends reset links through Resend.
type ResendNotifier struct {
	emails   sender
	from     string
	resetURL string
	logger   *slog.Logger
}

// NewResendNotifier creates a notifier using the given API key. resetURL is
// the page that accepts the token as its "token" query parameter.
func NewResendNotifier(apiKey, from, resetURL string, logger *slog.Logger) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("api key is required")
	}
	return newResendNotifier(resend.NewClient(apiKey).Emails, from, resetURL, logger)
}

func newResendNotifier(emails sender, from, resetURL string, logger *slog.Logger) (*ResendNotifier, error) {
	if from == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}
	if _, err := ResetLink(resetURL, "check"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResendNotifier{emails: emails, from: from, resetURL: resetURL, logger: logger}, nil
}

// SendPasswordReset implements auth.ResetNotifier.
func (n *ResendNotifier) SendPasswordReset(ctx context.Context, user *auth.User, token string) error {
	link, err := ResetLink(n.resetURL, token)
	if err != nil {
		return err
	}
	subject, body := resetMessage(user.Name, link)

	resp, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{user.Email},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("user_id", int64(user.ID)).Wrap(err)
	}
	n.logger.InfoContext(ctx, "password reset mail sent", "user_id", int64(user.ID), "message_id", resp.Id)
	return nil
}

// LogNotifier writes reset links to the log instead of sending them. It
// exists for local development only.
type LogNotifier struct {
	resetURL string
	logger   *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(resetURL string, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{resetURL: resetURL, logger: logger}
}

// SendPasswordReset implements auth.ResetNotifier.
func (n *LogNotifier) SendPasswordReset(ctx context.Context, user *auth.User, token string) error {
	link, err := ResetLink(n.resetURL, token)
	if err != nil {
		link = token
	}
	n.logger.WarnContext(ctx, "password reset mail not sent (development mode)",
		"user_id", int64(user.ID),
		"link", link,
	)
	return nil
}

// ResetLink appends token to base as the "token" query parameter.
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return "", oops.Code("MAIL_CONFIG_INVALID").With("reset_url", base).Errorf("reset url must be absolute")
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resetMessage(name, link string) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf(`Hi %s,

Someone asked to reset the password for your account. If it was you, open
the link below within the next hour:

%s

If you did not ask for this, you can ignore this message; your password
has not been changed.
`, name, link)
	return subject, body
}
