// Package email formats and sends office notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/arsarazi/realty/internal/contact"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// FormatContact builds the plain-text notification for a contact submission.
func FormatContact(s *contact.Submission, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "New contact form submission #%d\n\n", s.ID)
	fmt.Fprintf(&buf, "Name:    %s\n", s.Name)
	fmt.Fprintf(&buf, "Email:   %s\n", orUnset(s.Email))
	fmt.Fprintf(&buf, "Phone:   %s\n", orUnset(s.Phone))
	fmt.Fprintf(&buf, "Subject: %s\n", s.Subject.Label())
	fmt.Fprintf(&buf, "Date:    %s\n", s.CreatedAt.Format(time.RFC1123))

	if s.PropertyID != nil {
		title := s.PropertyTitle
		if title == "" {
			title = fmt.Sprintf("#%d", *s.PropertyID)
		}
		fmt.Fprintf(&buf, "Listing: %s\n", title)
		if baseURL != "" {
			fmt.Fprintf(&buf, "         %s/api/properties/%d\n", strings.TrimRight(baseURL, "/"), *s.PropertyID)
		}
	}

	fmt.Fprintf(&buf, "\n%s\n", s.Message)

	return buf.String()
}

func orUnset(s string) string {
	if s == "" {
		return "(not given)"
	}
	return s
}

// Notifier emails the office about new contact submissions.
type Notifier struct {
	cfg     SMTPConfig
	to      []string
	baseURL string
	send    func(cfg SMTPConfig, m Message) error
}

// NewNotifier creates a notifier that mails every recipient in to.
func NewNotifier(cfg SMTPConfig, baseURL string, to ...string) *Notifier {
	return &Notifier{cfg: cfg, to: to, baseURL: baseURL, send: Send}
}

// NotifyContact sends the notification for s. Replies go to the visitor
// when they left an email address.
func (n *Notifier) NotifyContact(ctx context.Context, s *contact.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(n.to) == 0 {
		return fmt.Errorf("no notification recipients")
	}
	return n.send(n.cfg, Message{
		To:      n.to,
		ReplyTo: s.Email,
		Subject: fmt.Sprintf("Contact form: %s from %s", s.Subject.Label(), s.Name),
		Body:    FormatContact(s, n.baseURL),
	})
}

// Message is one outgoing email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
	Date    time.Time
}

// Bytes renders m as a plain-text RFC 5322 message. Header values lose any
// line breaks and a non-ASCII subject is Q-encoded.
func (m Message) Bytes(from string) []byte {
	var buf bytes.Buffer
	header := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, headerValue(value))
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	header("From", from)
	header("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		header("Reply-To", m.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", headerValue(m.Subject)))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(v string) string {
	return headerBreaks.Replace(v)
}

// Send sends m via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, m Message) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := m.Bytes(cfg.From)
	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, m.To, msg)
	}
	return sendSTARTTLS(cfg, addr, m.To, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg []byte) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg []byte) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
