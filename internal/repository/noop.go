package repository

import (
	"context"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

// NoopAttemptRepository is used when no database is configured. Transitions
// always report one affected row so the orchestrator never sees them as
// rejected.
type NoopAttemptRepository struct{}

func (NoopAttemptRepository) InsertInitialState(context.Context, string, string, models.CheckoutState) error {
	return nil
}

func (NoopAttemptRepository) TransitionState(context.Context, string, models.CheckoutState, models.CheckoutState, string, string) (int64, error) {
	return 1, nil
}

func (NoopAttemptRepository) GetByAttemptID(context.Context, string) (*models.AttemptStateInfo, error) {
	return nil, ErrAttemptNotFound
}
