// Package notify delivers compliance reminders by email.
package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotConfigured = errors.New("mail delivery is not configured")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends plain-text mail with PLAIN auth.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.Host == "" || m.From == "" {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("mail has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := net.JoinHostPort(m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.From, []string{msg.To}, compose(m.From, msg)); err != nil {
		return errors.Wrapf(err, "could not send mail to %s", msg.To)
	}
	return nil
}

const maxLineLength = 76

func compose(from string, msg Message) []byte {
	header := map[string]string{
		"From":                      from,
		"To":                        msg.To,
		"Subject":                   "=?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(msg.Subject)) + "?=",
		"MIME-Version":              "1.0",
		"Content-Type":              `text/plain; charset="utf-8"`,
		"Content-Transfer-Encoding": "base64",
	}

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, header[k])
	}
	b.WriteString("\r\n")

	// RFC 2045 caps encoded lines at 76 characters
	encoded := base64.StdEncoding.EncodeToString([]byte(msg.Body))
	for len(encoded) > maxLineLength {
		b.WriteString(encoded[:maxLineLength])
		b.WriteString("\r\n")
		encoded = encoded[maxLineLength:]
	}
	b.WriteString(encoded)
	return []byte(b.String())
}
