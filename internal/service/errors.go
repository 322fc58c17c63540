package service

import (
	"errors"
	"fmt"

	"github.com/akylbek/payment-system/advisor-checkout/internal/client"
)

var (
	ErrSubmissionInProgress = errors.New("a checkout operation is already running for this session")
	ErrRequestInProgress    = errors.New("a reset request is already running for this view")
	ErrCooldownActive       = errors.New("reset link recently sent; wait for the cooldown to finish")
	ErrViewNotFound         = errors.New("view not found")
)

type FailureKind string

const (
	KindNetwork         FailureKind = "network"
	KindBackend         FailureKind = "backend"
	KindAuth            FailureKind = "auth"
	KindEmailNotFound   FailureKind = "email_not_found"
	KindEmailUnverified FailureKind = "email_unverified"
)

const (
	MsgNetwork         = "Network error. Please try again later."
	MsgSessionExpired  = "Your session has expired. Please sign in again."
	MsgPaymentSuccess  = "Payment successful!"
	MsgCouponApplied   = "Coupon applied successfully!"
	MsgResetLinkSent   = "Reset link sent to your email"
	MsgEmailNotFound   = "Email does not exist"
	MsgEmailUnverified = "Email is not verified"
	MsgSomethingWrong  = "Something went wrong"
)

// Failure is a remote-call failure with the message to show the user.
type Failure struct {
	Op      string
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s failed (%s): %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s failed (%s): %s", f.Op, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// classify turns a client error into a Failure. fallback is used when the
// backend rejected the call without a message of its own.
func classify(op string, err error, fallback string) *Failure {
	switch {
	case errors.Is(err, client.ErrNoToken), errors.Is(err, client.ErrTokenExpired):
		return &Failure{Op: op, Kind: KindAuth, Message: MsgSessionExpired, Err: err}
	case client.IsNetwork(err):
		return &Failure{Op: op, Kind: KindNetwork, Message: MsgNetwork, Err: err}
	}
	msg := client.BackendMessage(err)
	if msg == "" {
		msg = fallback
	}
	return &Failure{Op: op, Kind: KindBackend, Message: msg, Err: err}
}
