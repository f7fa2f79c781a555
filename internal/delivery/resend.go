package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	APIKey   string
	From     string
	ReplyTo  string
	Endpoint string
	Client   *http.Client
}

func NewResendMailer(apiKey, from, replyTo string) *ResendMailer {
	return &ResendMailer{
		APIKey:   apiKey,
		From:     from,
		ReplyTo:  replyTo,
		Endpoint: resendEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}
	body, err := json.Marshal(resendRequest{
		From:    m.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: m.ReplyTo,
	})
	if err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &DeliveryError{Provider: "resend", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeliveryError{
			Provider: "resend",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(b)),
		}
	}
	return nil
}
