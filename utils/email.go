package utils

import (
	"Go_Blog/config"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

// Mailer delivers notification mails.
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPMailer returns nil when SMTP is not configured.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	if !cfg.MailEnabled() {
		return nil
	}
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
	}
}

// Send delivers one HTML mail. Port 465 uses implicit TLS, other ports
// upgrade with STARTTLS when credentials are set.
func (m *SMTPMailer) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.HTML = []byte(htmlBody)

	addr := m.host + ":" + strconv.Itoa(m.port)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	tlsConfig := &tls.Config{ServerName: m.host}
	switch {
	case m.port == 465:
		return e.SendWithTLS(addr, auth, tlsConfig)
	case auth != nil:
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	default:
		return e.Send(addr, nil)
	}
}

// CommentMailBody renders the notification sent for a new comment.
func CommentMailBody(articleTitle, author, content, link string) string {
	return fmt.Sprintf(`
		<h3>New comment on %s</h3>
		<p><b>%s</b> wrote:</p>
		<blockquote>%s</blockquote>
		<a href="%s">Open the article</a>
	`, html.EscapeString(articleTitle), html.EscapeString(author), html.EscapeString(content), html.EscapeString(link))
}
