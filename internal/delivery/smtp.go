package delivery

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends multipart/alternative mail. smtp.SendMail upgrades to
// STARTTLS when the server offers it.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	send sendFunc
	now  func() time.Time
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}

	raw, err := m.build(msg)
	if err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(m.Host+":"+m.Port, auth, m.From, msg.To, raw); err != nil {
		return &DeliveryError{Provider: "smtp", Err: err}
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) ([]byte, error) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", m.From)
	fmt.Fprintf(&out, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&out, "Date: %s\r\n", now().Format(time.RFC1123Z))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
