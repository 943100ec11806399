// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mailer delivers verification codes.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// Sender delivers a verification code to an address.
type Sender interface {
	SendCode(ctx context.Context, to, code string) error
}

const subject = "Your vote confirmation code"

func body(code string) string {
	return fmt.Sprintf("Your confirmation code is %s.\n\n"+
		"Enter it to confirm your vote. The code is valid for 10 minutes.\n", code)
}

// SMTP sends codes through an SMTPS server.
type SMTP struct {
	client      *goemail.SMTP
	mailName    string
	mailAddress string
}

// NewSMTP connects to host as user. from is an RFC 5322 address such as
// "Tvorozhniki <noreply@example.com>".
func NewSMTP(host, user, password, from string, skipVerify bool) (*SMTP, error) {
	u := &url.URL{
		Scheme: "smtps",
		User:   url.UserPassword(user, password),
		Host:   host,
	}

	a, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	client, err := goemail.NewSMTP(u.String(), &tls.Config{InsecureSkipVerify: skipVerify})
	if err != nil {
		return nil, err
	}

	return &SMTP{
		client:      client,
		mailName:    a.Name,
		mailAddress: a.Address,
	}, nil
}

func (s *SMTP) SendCode(_ context.Context, to, code string) error {
	msg := goemail.NewMessage(s.mailAddress, subject, body(code))
	msg.AddTo(to)
	msg.SetName(s.mailName)
	return s.client.Send(msg)
}

// Log writes codes to the logger instead of sending them. Used when no SMTP
// server is configured.
type Log struct {
	Logger *slog.Logger
}

func (l Log) SendCode(_ context.Context, to, code string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verification code", "to", to, "code", code)
	return nil
}

// New returns an SMTP sender when host is set and a Log sender otherwise.
func New(host, user, password, from string) (Sender, error) {
	if host == "" || user == "" || password == "" {
		return Log{}, nil
	}
	return NewSMTP(host, user, password, from, false)
}
