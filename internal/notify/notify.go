// Package notify fans budget alerts out to configured sinks.
package notify

import (
	"context"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
)

// Alert is one budget notification with the context needed to route it.
type Alert struct {
	UserID       int64
	Category     string
	Year         int
	Month        int
	Percent      float64
	Notification core.Notification
}

type Sink interface {
	Notify(ctx context.Context, alert Alert) error
}

// SlogSink writes alerts to the structured log. Always available.
type SlogSink struct {
	logger *log.Logger
}

func NewSlogSink(logger *log.Logger) *SlogSink {
	return &SlogSink{logger: logger.WithComponent(log.ComponentBudget)}
}

func (s *SlogSink) Notify(ctx context.Context, alert Alert) error {
	logFn := s.logger.InfoContext
	if alert.Notification.Severity == core.SeverityError {
		logFn = s.logger.ErrorContext
	} else if alert.Notification.Severity == core.SeverityWarning {
		logFn = s.logger.WarnContext
	}

	logFn(ctx, alert.Notification.Message,
		log.FieldUserID, alert.UserID,
		log.FieldCategory, alert.Category,
		log.FieldYear, alert.Year,
		log.FieldMonth, alert.Month,
		"percent", alert.Percent,
		"severity", alert.Notification.Severity)

	return nil
}

// AMQPSink publishes alerts to the budget alert queue.
type AMQPSink struct {
	client *amqp.Client
}

func NewAMQPSink(client *amqp.Client) *AMQPSink {
	return &AMQPSink{client: client}
}

func (s *AMQPSink) Notify(ctx context.Context, alert Alert) error {
	return s.client.PublishBudgetAlert(ctx, amqp.BudgetAlertMessage{
		UserID:   alert.UserID,
		Category: alert.Category,
		Severity: string(alert.Notification.Severity),
		Message:  alert.Notification.Message,
		Percent:  alert.Percent,
		Year:     alert.Year,
		Month:    alert.Month,
	})
}

// Multi sends each alert to every sink. A failing sink does not block the
// others; the first error is returned.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Notify(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
