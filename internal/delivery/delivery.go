// Package delivery sends rendered digests by email.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Message is one digest email. Text is the plain-text alternative.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("no recipients")
	}
	if m.Subject == "" {
		return errors.New("empty subject")
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError is a failed send. It is the one pipeline error surfaced to
// the caller.
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering via %s: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

var ErrNoCredentials = errors.New("no email credentials: set RESEND_API_KEY or SMTP_HOST")

// FromEnv picks Resend when RESEND_API_KEY is set, then SMTP when SMTP_HOST
// is set.
func FromEnv() (Mailer, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(env func(string) string) (Mailer, error) {
	if key := env("RESEND_API_KEY"); key != "" {
		from := firstNonEmpty(env("RESEND_FROM"), env("FROM_EMAIL"))
		if from == "" {
			return nil, errors.New("RESEND_FROM is required with RESEND_API_KEY")
		}
		return NewResendMailer(key, from, env("REPLY_TO")), nil
	}
	if host := env("SMTP_HOST"); host != "" {
		port := firstNonEmpty(env("SMTP_PORT"), "587")
		from := firstNonEmpty(env("FROM_EMAIL"), env("SMTP_USER"))
		if from == "" {
			return nil, errors.New("FROM_EMAIL or SMTP_USER is required with SMTP_HOST")
		}
		return &SMTPMailer{
			Host:     host,
			Port:     port,
			Username: env("SMTP_USER"),
			Password: env("SMTP_PASS"),
			From:     from,
		}, nil
	}
	return nil, ErrNoCredentials
}

// Recipients splits a comma separated address list.
func Recipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
