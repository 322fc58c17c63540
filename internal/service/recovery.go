package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/client"
	"github.com/akylbek/payment-system/advisor-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
	"github.com/akylbek/payment-system/advisor-checkout/internal/validation"
)

const (
	opFetchProfile   = "fetch_profile"
	opForgotPassword = "forgot_password"

	DefaultResetCooldown = 5 * time.Minute
)

// RecoveryView is one password-recovery form. Its cooldown lives as long as
// the view: closing the view cancels it.
type RecoveryView struct {
	ID       string
	ctx      context.Context
	cancel   context.CancelFunc
	cooldown *Cooldown
	loading  atomic.Bool
}

func NewRecoveryView(id string, newTicker TickerFunc) *RecoveryView {
	ctx, cancel := context.WithCancel(context.Background())
	return &RecoveryView{
		ID:       id,
		ctx:      ctx,
		cancel:   cancel,
		cooldown: NewCooldown(newTicker),
	}
}

// RecoveryStatus is what the form needs to render its submit button.
type RecoveryStatus struct {
	ID        string `json:"id"`
	Loading   bool   `json:"loading"`
	Disabled  bool   `json:"disabled"`
	Remaining int    `json:"remainingSeconds"`
	Label     string `json:"label"`
}

func (v *RecoveryView) Status() RecoveryStatus {
	remaining := v.cooldown.Remaining()
	loading := v.loading.Load()

	label := "Send Reset Link"
	switch {
	case loading:
		label = "Checking..."
	case remaining > 0:
		label = v.cooldown.Label()
	}

	return RecoveryStatus{
		ID:        v.ID,
		Loading:   loading,
		Disabled:  loading || remaining > 0,
		Remaining: remaining,
		Label:     label,
	}
}

// Close tears the view down and stops its cooldown.
func (v *RecoveryView) Close() {
	v.cancel()
	v.cooldown.Cancel()
}

// Recovery runs the two-step password reset: the entered email must be the
// signed-in profile's verified email before a reset link is requested.
type Recovery struct {
	backend   interfaces.AccountBackend
	publisher interfaces.EventPublisher
	cooldown  time.Duration
}

func NewRecovery(backend interfaces.AccountBackend, publisher interfaces.EventPublisher, cooldown time.Duration) *Recovery {
	if cooldown <= 0 {
		cooldown = DefaultResetCooldown
	}
	return &Recovery{backend: backend, publisher: publisher, cooldown: cooldown}
}

// CooldownSeconds is the length of the post-send cooldown.
func (r *Recovery) CooldownSeconds() int {
	return int(r.cooldown / time.Second)
}

func (r *Recovery) RequestReset(ctx context.Context, view *RecoveryView, email string) error {
	if msg := validation.ValidateEmail(email); msg != "" {
		return validation.Errors{validation.FieldEmail: msg}
	}
	if !view.loading.CompareAndSwap(false, true) {
		return ErrRequestInProgress
	}
	defer view.loading.Store(false)
	if view.cooldown.Active() {
		return ErrCooldownActive
	}

	ctx, span := telemetry.Tracer.Start(ctx, "recovery.request_reset")
	defer span.End()

	if err := r.sendResetLink(ctx, email); err != nil {
		kind := "error"
		var f *Failure
		if errors.As(err, &f) {
			kind = string(f.Kind)
			span.SetStatus(codes.Error, f.Message)
		}
		telemetry.PasswordResets.WithLabelValues(kind).Inc()
		telemetry.Logger.Warn("Password reset rejected",
			zap.String("view_id", view.ID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return err
	}

	seconds := r.CooldownSeconds()
	view.cooldown.Start(view.ctx, seconds)

	if err := r.publisher.Publish(ctx, view.ID, models.PasswordResetEvent{
		ViewID:    view.ID,
		Email:     email,
		Cooldown:  seconds,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		telemetry.Logger.Warn("Failed to publish password reset event",
			zap.String("view_id", view.ID),
			zap.Error(err),
		)
	}

	telemetry.PasswordResets.WithLabelValues("sent").Inc()
	telemetry.Logger.Info("Password reset link sent",
		zap.String("view_id", view.ID),
		zap.Int("cooldown_seconds", seconds),
	)
	return nil
}

func (r *Recovery) sendResetLink(ctx context.Context, email string) error {
	profile, err := r.backend.FetchProfile(ctx)
	if err != nil {
		if client.IsNetwork(err) {
			return &Failure{Op: opFetchProfile, Kind: KindNetwork, Message: MsgNetwork, Err: err}
		}
		return &Failure{Op: opFetchProfile, Kind: KindEmailNotFound, Message: MsgEmailNotFound, Err: err}
	}
	if profile.Email != email {
		return &Failure{Op: opFetchProfile, Kind: KindEmailNotFound, Message: MsgEmailNotFound}
	}
	if !profile.IsEmailVerified {
		return &Failure{Op: opFetchProfile, Kind: KindEmailUnverified, Message: MsgEmailUnverified}
	}

	if err := r.backend.RequestPasswordReset(ctx, email); err != nil {
		return classify(opForgotPassword, err, MsgSomethingWrong)
	}
	return nil
}
