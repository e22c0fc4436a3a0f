// Package mail renders email events and delivers them over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/queue"
)

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Sender delivers email events through one SMTP relay.
type Sender struct {
	client   dialer
	from     string
	fromName string
	log      *zap.Logger
}

// NewSender configures an SMTP client from cfg. No connection is made
// until the first Send.
func NewSender(cfg config.MailConfig, log *zap.Logger) (*Sender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl", "tls":
		opts = append(opts, gomail.WithSSL())
	case "none", "":
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password))
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Sender{client: client, from: cfg.From, fromName: cfg.FromName, log: log}, nil
}

// Send renders and delivers one event. It satisfies queue.EmailHandler.
func (s *Sender) Send(ctx context.Context, ev queue.EmailEvent) error {
	msg, err := s.message(ev)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", ev.Kind, ev.To, err)
	}
	s.log.Info("email sent", zap.String("kind", string(ev.Kind)), zap.String("to", ev.To))
	return nil
}

func (s *Sender) message(ev queue.EmailEvent) (*gomail.Msg, error) {
	subject, text, html, err := Render(ev)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.AddToFormat(ev.Name, ev.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)
	return msg, nil
}
