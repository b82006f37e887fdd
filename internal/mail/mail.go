// Package mail sends transactional email: today only the password reset
// link.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"gopkg.in/gomail.v2"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = `"Recipe-mate" <noreply@example.com>`

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Delivery describes an accepted message.
type Delivery struct {
	MessageID string
	SentAt    time.Time
}

type Sender interface {
	Send(ctx context.Context, msg Message) (*Delivery, error)
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPSender delivers through an SMTP relay, one connection per message.
type SMTPSender struct {
	from string
	host string
	send func(m ...*gomail.Message) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = DefaultFrom
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &SMTPSender{from: from, host: cfg.Host, send: d.DialAndSend}
}

// Send builds a multipart/alternative message and hands it to the relay.
// gomail has no context support, so a cancelled ctx abandons the wait but
// not the SMTP session itself.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (*Delivery, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("mail: message has no recipient")
	}

	id := fmt.Sprintf("<%s@%s>", xid.New().String(), s.host)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("mail: sending to %s: %w", msg.To, err)
		}
		return &Delivery{MessageID: id, SentAt: time.Now().UTC()}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mail: sending to %s: %w", msg.To, ctx.Err())
	}
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (*Delivery, error) {
	id := xid.New().String()
	s.logger.InfoContext(ctx, "mail not sent (no SMTP host configured)",
		slog.String("messageID", id),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return &Delivery{MessageID: id, SentAt: time.Now().UTC()}, nil
}
