package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// EmailConfig holds the transactional-email sink settings. All fields are
// required for the sink to be constructed; callers skip the sink entirely
// when any are missing.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

// EmailSink delivers price-drop alerts over SMTP with STARTTLS.
type EmailSink struct {
	cfg  EmailConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSink builds the email sink.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	return &EmailSink{cfg: cfg, send: smtp.SendMail}
}

// Name identifies the sink in logs and metrics.
func (s *EmailSink) Name() string {
	return "email"
}

// Deliver composes and sends a human-readable price-drop email.
func (s *EmailSink) Deliver(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email delivery canceled: %w", err)
	}

	subject := fmt.Sprintf("Price Drop Alert: %s", event.Model)
	body := fmt.Sprintf(
		"Price Drop Alert!\n\n"+
			"Model: %s\n"+
			"Previous Price: $%.2f\n"+
			"New Price: $%.2f\n"+
			"Savings: $%.2f (%.1f%% drop)\n\n"+
			"Check it out now!\n",
		event.Model, event.OldPrice, event.NewPrice, event.Savings, event.DropPercent)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.User)
	fmt.Fprintf(&msg, "To: %s\r\n", s.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := s.send(addr, auth, s.cfg.User, []string{s.cfg.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}
