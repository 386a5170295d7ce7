// Package mail delivers OTP codes over SMTP. Sending happens after
// the user record is persisted and never blocks the request path: the
// auth service fires it on a background goroutine and logs failures.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/carelinnk/carelinnk-api/config"
)

// Sender delivers transactional mail for the auth flow.
type Sender interface {
	SendOTP(ctx context.Context, to, otp string) error
}

// SMTPSender sends over implicit TLS (port 465 style endpoints).
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SendOTP renders the verification-code mail and delivers it. The
// context bounds the TCP dial; SMTP conversation failures surface as
// errors for the caller to log.
func (s *SMTPSender) SendOTP(ctx context.Context, to, otp string) error {
	subject := "Your Care-Linnk Verification Code"
	body := otpBody(otp)

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.cfg.From) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	serverAddr := s.cfg.Host + ":" + s.cfg.Port
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}

	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	s.logger.Debug("OTP mail sent", slog.String("to", to))
	return nil
}

func otpBody(otp string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:sans-serif;background-color:#f8f9fa">
  <div style="max-width:600px;margin:0 auto;background-color:#ffffff">
    <div style="background:#006E58;padding:40px 20px;text-align:center">
      <h1 style="margin:0;font-size:28px;color:#ffffff">Care-Linnk</h1>
    </div>
    <div style="padding:50px 40px;text-align:center">
      <h2 style="margin:0 0 20px;font-size:24px;color:#1a1a1a">Your Verification Code</h2>
      <p style="margin:0 0 30px;font-size:16px;color:#555">Use this one-time code to verify your email address.</p>
      <div style="border:2px solid #006E58;border-radius:8px;padding:20px;font-size:32px;font-weight:700;letter-spacing:8px;color:#006E58;font-family:monospace">%s</div>
      <p style="margin:30px 0 0;font-size:13px;color:#999">This is an automated message. Please don't reply.</p>
    </div>
  </div>
</body>
</html>`, otp)
}
