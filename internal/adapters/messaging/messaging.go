// Package messaging delivers customer notifications over WhatsApp.
package messaging

import (
	"context"
	"errors"
	"strings"

	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"

	"golang.org/x/time/rate"
)

// ErrInvalidPhone is returned for numbers with too few digits
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone strips formatting, a leading '+' and a "00" exit code from a
// phone number, leaving the international digits WhatsApp expects.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "00")
	if len(digits) < 8 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// FormatText renders a notification as one WhatsApp text body
func FormatText(n services.Notification) string {
	if n.Title == "" {
		return n.Body
	}
	return "*" + n.Title + "*\n\n" + n.Body
}

// ============================================================
// DisabledNotifier
// ============================================================

// DisabledNotifier is used when no channel is configured
type DisabledNotifier struct{}

// Send always returns ErrChannelDisabled
func (DisabledNotifier) Send(context.Context, services.Notification) (string, error) {
	return "", domain.ErrChannelDisabled
}

// ============================================================
// ThrottledNotifier
// ============================================================

// ThrottledNotifier spaces out sends to stay under the channel's rate limits
type ThrottledNotifier struct {
	next    services.Notifier
	limiter *rate.Limiter
}

// NewThrottledNotifier allows perSecond messages per second with a burst of one
func NewThrottledNotifier(next services.Notifier, perSecond float64) *ThrottledNotifier {
	return &ThrottledNotifier{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Send waits for a token, then delegates
func (t *ThrottledNotifier) Send(ctx context.Context, n services.Notification) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.next.Send(ctx, n)
}
