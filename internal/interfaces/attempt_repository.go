package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

// AttemptRepository defines the contract for the checkout attempt ledger
type AttemptRepository interface {
	InsertInitialState(ctx context.Context, attemptID, sessionID string, state models.CheckoutState) error
	TransitionState(ctx context.Context, attemptID string, from, to models.CheckoutState, intentID, reason string) (int64, error)
	GetByAttemptID(ctx context.Context, attemptID string) (*models.AttemptStateInfo, error)
}
