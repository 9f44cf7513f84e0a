//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=mailer.go -destination=../mocks/mock_mailer.go -package=mocks

// Package mailer sends transactional mail over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"messenger/internal/config"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

const signupSubject = "Signup code"

type Mailer interface {
	SendSignupCode(ctx context.Context, to, code string) error
}

type SMTPMailer struct {
	cfg config.MailConfig
	log logger.Logger
}

func NewSMTPMailer(cfg config.MailConfig, log logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

// SignupCodeMessage builds the one-time code message.
func SignupCodeMessage(cfg config.MailConfig, to, code string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(cfg.FromName, cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(signupSubject)
	m.SetBodyString(mail.TypeTextPlain, "Your code "+code)
	return m, nil
}

func (s *SMTPMailer) SendSignupCode(ctx context.Context, to, code string) error {
	m, err := SignupCodeMessage(s.cfg, to, code)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrMailDelivery)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %v: %w", err, apperrors.ErrMailDelivery)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Error("Failed to send signup code", "to", to, "error", err)
		return fmt.Errorf("failed to send mail: %v: %w", err, apperrors.ErrMailDelivery)
	}
	s.log.Info("Signup code sent", "to", to)
	return nil
}
