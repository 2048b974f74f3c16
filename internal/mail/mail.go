// Package mail defines the outbound email collaborator and its SMTP
// implementation. Delivery failures are never fatal to the calling flow.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP delivers mail through an authenticated STARTTLS relay.
type SMTP struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTP constructs an SMTP mailer.
func NewSMTP(host string, port int, username, password, fromName, fromEmail string) *SMTP {
	return &SMTP{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one message. The context is accepted for contract symmetry;
// net/smtp does not support cancellation mid-session.
func (m *SMTP) Send(_ context.Context, to, subject, body string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s <%s>\r\n", m.fromName, m.fromEmail)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("\r\n")
	sb.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(addr, auth, m.fromEmail, []string{to}, []byte(sb.String()))
}
