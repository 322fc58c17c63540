package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

// PaymentBackend is the remote side of the checkout flow.
type PaymentBackend interface {
	CreateIntent(ctx context.Context, coupon string) (*models.Intent, error)
	CreatePaymentMethod(ctx context.Context, card models.CardDetails) (string, error)
	ConfirmPayment(ctx context.Context, intentID, methodID string) error
}

// AccountBackend is the remote side of the password-recovery flow.
type AccountBackend interface {
	FetchProfile(ctx context.Context) (*models.Profile, error)
	RequestPasswordReset(ctx context.Context, email string) error
}

// EventPublisher delivers domain events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Locker hands out short-lived exclusive locks. Acquire returns ErrLocked
// (from the lock package) when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
