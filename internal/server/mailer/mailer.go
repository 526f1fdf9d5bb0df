// Package mailer delivers password-reset links.
//
// SMTPMailer sends through an SMTP relay behind a circuit breaker so that a
// dead relay fails fast instead of holding every reset request for the dial
// timeout. LogMailer is used when no relay is configured.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"
)

// Mailer sends a reset link to an address.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("mail relay unavailable")

const resetSubject = "Reset your HomeShare password"

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	cb     *gobreaker.CircuitBreaker
	logger logging.Logger
}

// dialAndSend is swapped out in tests.
var dialAndSend = func(d *gomail.Dialer, m ...*gomail.Message) error {
	return d.DialAndSend(m...)
}

func NewSMTPMailer(cfg SMTPConfig, logger logging.Logger) *SMTPMailer {
	l := logger.With("module", "mailer")
	return &SMTPMailer{
		cfg:    cfg,
		cb:     newBreaker("smtp", l),
		logger: l,
	}
}

func newBreaker(name string, logger logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/plain", resetBody(link))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, dialAndSend(d, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	if err != nil {
		m.logger.Error(ctx, "failed to send reset mail", "error", err.Error())
		return fmt.Errorf("send reset mail: %w", err)
	}

	m.logger.Info(ctx, "reset mail sent")
	return nil
}

// LogMailer writes the link to the log. Development only.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.logger.Info(ctx, "password reset requested", "to", to, "link", link)
	return nil
}

// New picks SMTPMailer when a host is configured and LogMailer otherwise.
func New(cfg SMTPConfig, logger logging.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}

func resetBody(link string) string {
	return "Someone asked to reset the password of your HomeShare account.\n\n" +
		"Follow this link to choose a new one:\n" + link + "\n\n" +
		"If it was not you, ignore this message."
}
