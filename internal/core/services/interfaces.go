package services

import (
	"context"

	"posdesk/internal/core/domain"
)

// Note: MessageGenerator and its implementations are in message_generator.go
// Note: ProfileSource is in access_service.go

// Notification is one outbound customer message
type Notification struct {
	Phone string
	Title string
	Body  string
	Type  domain.ReminderType
}

// Notifier delivers a notification to a customer's phone and returns the
// channel's message id when it has one.
type Notifier interface {
	Send(ctx context.Context, n Notification) (string, error)
}

// RunLock guards a reminder run across server instances
type RunLock interface {
	// Acquire reports false when another holder owns the lock. The returned
	// release func is only set when the lock was acquired.
	Acquire(ctx context.Context) (release func(), acquired bool, err error)
}

// RunReporter receives run outcomes for staff, best effort
type RunReporter interface {
	ReminderRunCompleted(summary domain.RunSummary)
	ReminderRunFailed(err error)
}
