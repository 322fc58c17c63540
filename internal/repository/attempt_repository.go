package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

// ErrAttemptNotFound is returned when no ledger row exists for an attempt.
var ErrAttemptNotFound = errors.New("checkout attempt not found")

// AttemptRepository keeps one row per checkout submission. It is an audit
// trail of outcomes; the live checkout session itself is never stored.
type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS checkout_attempts (
			attempt_id VARCHAR(64) PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			state VARCHAR(32) NOT NULL,
			previous_state VARCHAR(32),
			payment_intent_id VARCHAR(64),
			failure_reason TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_session ON checkout_attempts(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_state ON checkout_attempts(state)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *AttemptRepository) InsertInitialState(ctx context.Context, attemptID, sessionID string, state models.CheckoutState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkout_attempts (attempt_id, session_id, state, previous_state)
		VALUES ($1, $2, $3, '')
		ON CONFLICT (attempt_id) DO NOTHING
	`, attemptID, sessionID, state)
	return err
}

// TransitionState moves an attempt from one state to the next. Zero rows
// affected means the attempt was not in the expected state.
func (r *AttemptRepository) TransitionState(ctx context.Context, attemptID string, from, to models.CheckoutState, intentID, reason string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE checkout_attempts
		SET state = $1,
			previous_state = $2,
			payment_intent_id = COALESCE(NULLIF($3, ''), payment_intent_id),
			failure_reason = NULLIF($4, ''),
			updated_at = NOW()
		WHERE attempt_id = $5 AND state = $6
	`, to, from, intentID, reason, attemptID, from)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AttemptRepository) GetByAttemptID(ctx context.Context, attemptID string) (*models.AttemptStateInfo, error) {
	var (
		info                       models.AttemptStateInfo
		previous, intentID, reason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT attempt_id, session_id, state, previous_state, payment_intent_id, failure_reason, created_at, updated_at
		FROM checkout_attempts WHERE attempt_id = $1
	`, attemptID).Scan(&info.AttemptID, &info.SessionID, &info.State, &previous, &intentID, &reason, &info.CreatedAt, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	info.PreviousState = previous.String
	info.PaymentIntentID = intentID.String
	info.FailureReason = reason.String
	return &info, nil
}
