package models

import "time"

// DefaultAmount is the checkout amount in minor currency units before the
// backend has quoted an intent.
const DefaultAmount int64 = 5000

type CheckoutState string

const (
	StateIdle           CheckoutState = "IDLE"
	StateCreatingIntent CheckoutState = "CREATING_INTENT"
	StateCreatingMethod CheckoutState = "CREATING_METHOD"
	StateConfirming     CheckoutState = "CONFIRMING"
	StateSucceeded      CheckoutState = "SUCCEEDED"
	StateFailed         CheckoutState = "FAILED"
)

// Settled reports whether the state is one of the two terminal outcomes.
func (s CheckoutState) Settled() bool {
	return s == StateSucceeded || s == StateFailed
}

// CheckoutSession is the transient state of one checkout view. It is owned by
// the orchestrator and never written to storage.
type CheckoutSession struct {
	ID              string        `json:"id"`
	Amount          int64         `json:"amount"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	PaymentMethodID string        `json:"paymentMethodId,omitempty"`
	CouponApplied   bool          `json:"couponApplied"`
	State           CheckoutState `json:"state"`
}

// NewCheckoutSession returns a session in its mount-time state.
func NewCheckoutSession(id string) CheckoutSession {
	return CheckoutSession{ID: id, Amount: DefaultAmount, State: StateIdle}
}

// Reset clears everything but the id.
func (s CheckoutSession) Reset() CheckoutSession {
	return NewCheckoutSession(s.ID)
}

// PaymentForm is the raw payment form as submitted by the user.
type PaymentForm struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Coupon     string `json:"coupon,omitempty"`
}

// CardDetails is the body of a create-method request.
type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

type Intent struct {
	ID     string
	Amount int64
}

type Profile struct {
	Email           string `json:"email"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// CheckoutEvent is published on every orchestrator state transition.
type CheckoutEvent struct {
	AttemptID       string        `json:"attempt_id"`
	SessionID       string        `json:"session_id"`
	State           CheckoutState `json:"state"`
	PreviousState   CheckoutState `json:"previous_state"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	Amount          int64         `json:"amount"`
	Reason          string        `json:"reason,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// PasswordResetEvent is published after a reset link was sent.
type PasswordResetEvent struct {
	ViewID    string    `json:"view_id"`
	Email     string    `json:"email"`
	Cooldown  int       `json:"cooldown_seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// AttemptStateInfo represents the recorded state of one checkout attempt
type AttemptStateInfo struct {
	AttemptID       string
	SessionID       string
	State           string
	PreviousState   string
	PaymentIntentID string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
