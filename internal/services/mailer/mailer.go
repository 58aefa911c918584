// Package mailer delivers transactional email. The OTP service only
// generates codes; callers hand them to a Sender for delivery.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type Sender interface {
	SendOtpEmail(ctx context.Context, toEmail, toName, code string) error
}

// SMTP sends mail over plain SMTP with optional PLAIN auth. Works with
// MailHog locally and authenticated relays in production.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{Host: host, Port: port, Username: username, Password: password, From: from}
}

func (m *SMTP) SendOtpEmail(ctx context.Context, toEmail, toName, code string) error {
	subject := "Verify your email - SGP Freelancing"
	body := otpEmailHTML(toName, code)

	var sb strings.Builder
	sb.WriteString("From: " + m.From + "\r\n")
	sb.WriteString("To: " + toEmail + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.From, []string{toEmail}, []byte(sb.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send otp mail to %s: %w", toEmail, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(15 * time.Second):
		return fmt.Errorf("send otp mail to %s: timeout", toEmail)
	}
}

func otpEmailHTML(name, code string) string {
	if name == "" {
		name = "there"
	}
	return `<div style="font-family:sans-serif;max-width:480px;margin:0 auto">` +
		`<h2>Email verification</h2>` +
		`<p>Hi ` + name + `,</p>` +
		`<p>Your verification code is:</p>` +
		`<p style="font-size:28px;letter-spacing:6px;font-weight:bold">` + code + `</p>` +
		`<p>The code expires in 10 minutes. If you did not request it, ignore this email.</p>` +
		`</div>`
}

// Log writes codes to the application log instead of sending mail. Used in
// development when no SMTP host is configured.
type Log struct{}

func (Log) SendOtpEmail(_ context.Context, toEmail, _, code string) error {
	log.Printf("[mailer] OTP for %s: %s", toEmail, code)
	return nil
}
