package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/config"
	"ecoshop_back_end/internal/metrics"
)

// Mailer envoie un email texte.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer envoie via un relais SMTP avec go-mail.
type SMTPMailer struct {
	from   string
	client *mail.Client
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.From, client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer écrit les emails dans les logs au lieu de les envoyer.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("email not sent, smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

// ErrMailerUnavailable est retourné tant que le breaker est ouvert.
var ErrMailerUnavailable = errors.New("mailer unavailable")

// BreakerSettings configure BreakerMailer.
type BreakerSettings struct {
	Name        string
	MinRequests uint32
	// FailureRatio déclenche le breaker une fois MinRequests atteint.
	FailureRatio float64
	Timeout      time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "smtp",
		MinRequests:  3,
		FailureRatio: 0.5,
		Timeout:      30 * time.Second,
	}
}

// BreakerMailer cesse d'appeler un mailer défaillant jusqu'à écoulement de Timeout.
type BreakerMailer struct {
	next    Mailer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerMailer(next Mailer, s BreakerSettings, logger *zap.Logger) *BreakerMailer {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	return &BreakerMailer{next: next, breaker: cb}
}

func (m *BreakerMailer) Send(ctx context.Context, to, subject, body string) error {
	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.next.Send(ctx, to, subject, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrMailerUnavailable, err)
	}
	return err
}

func (m *BreakerMailer) State() gobreaker.State {
	return m.breaker.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
