package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digest() Message {
	return Message{
		To:      []string{"ada@example.com"},
		Subject: "Research Newsfeed — last 24h",
		HTML:    "<h1>Research Newsfeed</h1>",
		Text:    "Research Newsfeed",
	}
}

func TestResendMailerSend(t *testing.T) {
	var (
		got     resendRequest
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_key", "feed@example.com", "me@example.com")
	m.Endpoint = srv.URL
	require.NoError(t, m.Send(context.Background(), digest()))

	assert.Equal(t, "Bearer re_key", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	_, err := uuid.Parse(headers.Get("Idempotency-Key"))
	assert.NoError(t, err)

	assert.Equal(t, "feed@example.com", got.From)
	assert.Equal(t, []string{"ada@example.com"}, got.To)
	assert.Equal(t, "Research Newsfeed — last 24h", got.Subject)
	assert.Equal(t, "<h1>Research Newsfeed</h1>", got.HTML)
	assert.Equal(t, "Research Newsfeed", got.Text)
	assert.Equal(t, "me@example.com", got.ReplyTo)
}

func TestResendMailerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewResendMailer("bad", "feed@example.com", "")
	m.Endpoint = srv.URL
	err := m.Send(context.Background(), digest())

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "resend", de.Provider)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestResendMailerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewResendMailer("k", "feed@example.com", "")
	m.Endpoint = url
	var de *DeliveryError
	assert.ErrorAs(t, m.Send(context.Background(), digest()), &de)
}

func TestMessageValidation(t *testing.T) {
	m := NewResendMailer("k", "f@example.com", "")
	m.Endpoint = "http://127.0.0.1:0"

	err := m.Send(context.Background(), Message{Subject: "s"})
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "no recipients")

	err = (&SMTPMailer{}).Send(context.Background(), Message{To: []string{"a@b.c"}})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "smtp", de.Provider)
}

func TestSMTPMailerBuildsMultipart(t *testing.T) {
	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		raw     []byte
	)
	m := &SMTPMailer{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user",
		Password: "pass",
		From:     "feed@example.com",
		now:      func() time.Time { return time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC) },
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotAuth, gotFrom, gotTo, raw = addr, a, from, to, msg
			return nil
		},
	}
	require.NoError(t, m.Send(context.Background(), digest()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "feed@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Research Newsfeed — last 24h", subject)
	assert.Equal(t, "ada@example.com", parsed.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])
	var types, bodies []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(p)
		types = append(types, p.Header.Get("Content-Type"))
		bodies = append(bodies, string(b))
	}
	assert.Equal(t, []string{"text/plain; charset=utf-8", "text/html; charset=utf-8"}, types)
	assert.Equal(t, []string{"Research Newsfeed", "<h1>Research Newsfeed</h1>"}, bodies)
}

func TestSMTPMailerWithoutAuth(t *testing.T) {
	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	m := &SMTPMailer{
		Host: "localhost",
		Port: "25",
		From: "feed@example.com",
		send: func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
			gotAuth = a
			return errors.New("connection refused")
		},
	}
	err := m.Send(context.Background(), digest())
	assert.Nil(t, gotAuth)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "smtp", de.Provider)
	assert.Contains(t, de.Unwrap().Error(), "connection refused")
}

func TestFromLookup(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	m, err := fromLookup(env(map[string]string{"RESEND_API_KEY": "k", "RESEND_FROM": "f@example.com", "SMTP_HOST": "ignored"}))
	require.NoError(t, err)
	r, ok := m.(*ResendMailer)
	require.True(t, ok)
	assert.Equal(t, "f@example.com", r.From)

	_, err = fromLookup(env(map[string]string{"RESEND_API_KEY": "k"}))
	assert.Error(t, err)

	m, err = fromLookup(env(map[string]string{"SMTP_HOST": "smtp.example.com", "SMTP_USER": "u@example.com"}))
	require.NoError(t, err)
	s, ok := m.(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "587", s.Port)
	assert.Equal(t, "u@example.com", s.From)

	_, err = fromLookup(env(nil))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, Recipients(" a@x.com, ,b@x.com "))
	assert.Empty(t, Recipients(""))
}
