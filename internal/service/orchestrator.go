package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/format"
	"github.com/akylbek/payment-system/advisor-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/advisor-checkout/internal/lock"
	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
	"github.com/akylbek/payment-system/advisor-checkout/internal/validation"
)

const (
	opCreateIntent = "create_intent"
	opCreateMethod = "create_method"
	opConfirm      = "confirm"
	opApplyCoupon  = "apply_coupon"

	defaultLockTTL        = time.Minute
	defaultPublishTimeout = 2 * time.Second

	// submitBackendCalls and submitTransitions bound one submission: intent,
	// method and confirm, each announced plus the settled state.
	submitBackendCalls = 3
	submitTransitions  = 4
)

var fallbackMessages = map[string]string{
	opCreateIntent: "Failed to initialize payment. Please try again.",
	opCreateMethod: "Invalid card details. Please check and try again.",
	opConfirm:      "Payment failed. Please try again.",
	opApplyCoupon:  "Invalid or expired coupon code.",
}

// Orchestrator drives one checkout session through intent creation, payment
// method creation and confirmation. It holds no session state of its own:
// every call takes the current session and returns the next one.
type Orchestrator struct {
	backend   interfaces.PaymentBackend
	repo      interfaces.AttemptRepository
	locker    interfaces.Locker
	publisher interfaces.EventPublisher

	requestTimeout time.Duration
	lockTTL        time.Duration
	publishTimeout time.Duration
}

type OrchestratorOption func(*Orchestrator)

// WithRequestTimeout sizes the session lock so it outlives a full submission
// in which every backend call runs into the given timeout.
func WithRequestTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.requestTimeout = d }
}

// WithPublishTimeout bounds each event publish made on the request path.
func WithPublishTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

// LockTTL is the time one submission can hold its session lock: every
// backend call and every transition publish timing out, plus one more
// request timeout of slack.
func LockTTL(requestTimeout, publishTimeout time.Duration) time.Duration {
	return (submitBackendCalls+1)*requestTimeout + submitTransitions*publishTimeout
}

func NewOrchestrator(
	backend interfaces.PaymentBackend,
	repo interfaces.AttemptRepository,
	locker interfaces.Locker,
	publisher interfaces.EventPublisher,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		backend:        backend,
		repo:           repo,
		locker:         locker,
		publisher:      publisher,
		lockTTL:        defaultLockTTL,
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.requestTimeout > 0 {
		o.lockTTL = LockTTL(o.requestTimeout, o.publishTimeout)
	}
	return o
}

// step is one stage of the submit pipeline. It returns the updated session or
// the reason the pipeline has to stop.
type step struct {
	state models.CheckoutState
	skip  func(models.CheckoutSession) bool
	run   func(context.Context, models.CheckoutSession) (models.CheckoutSession, error)
}

// Submit validates the form and runs the checkout pipeline. On success the
// returned session is back at its defaults; on any failure it is Idle and
// keeps whatever intent it already had, so the user can simply resubmit.
// The attempt id names the ledger row of this run; it is empty when the
// pipeline never started (invalid form or busy session).
func (o *Orchestrator) Submit(ctx context.Context, sess models.CheckoutSession, form models.PaymentForm) (models.CheckoutSession, string, error) {
	if errs := validation.ValidatePaymentForm(form); !errs.Valid() {
		return sess, "", errs
	}

	release, err := o.acquire(ctx, sess.ID)
	if err != nil {
		return sess, "", err
	}
	defer release()

	ctx, span := telemetry.Tracer.Start(ctx, "checkout.submit")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.session_id", sess.ID))

	card := models.CardDetails{
		CardNumber: format.CardNumberForSubmit(form.CardNumber),
		Expiry:     form.Expiry,
		CVV:        form.CVV,
		Country:    form.Country,
		PostalCode: form.PostalCode,
	}

	pipeline := []step{
		{
			state: models.StateCreatingIntent,
			skip:  func(s models.CheckoutSession) bool { return s.PaymentIntentID != "" },
			run:   o.createIntent,
		},
		{
			state: models.StateCreatingMethod,
			run: func(ctx context.Context, s models.CheckoutSession) (models.CheckoutSession, error) {
				return o.createMethod(ctx, s, card)
			},
		},
		{
			state: models.StateConfirming,
			run:   o.confirm,
		},
	}

	a := o.begin(ctx, sess)
	span.SetAttributes(attribute.String("checkout.attempt_id", a.id))
	for _, st := range pipeline {
		if st.skip != nil && st.skip(sess) {
			continue
		}
		sess.State = st.state
		a.transition(ctx, sess, "")

		stepCtx, stepSpan := telemetry.Tracer.Start(ctx, "checkout."+strings.ToLower(string(st.state)))
		sess, err = st.run(stepCtx, sess)
		if err != nil {
			reason := err.Error()
			var f *Failure
			if errors.As(err, &f) {
				reason = f.Message
			}
			stepSpan.SetStatus(codes.Error, reason)
			stepSpan.End()
			sess.State = models.StateFailed
			a.transition(ctx, sess, reason)

			span.SetStatus(codes.Error, reason)
			telemetry.CheckoutOutcomes.WithLabelValues("failed").Inc()
			sess.State = models.StateIdle
			return sess, a.id, err
		}
		stepSpan.End()
	}

	sess.State = models.StateSucceeded
	a.transition(ctx, sess, "")
	telemetry.CheckoutOutcomes.WithLabelValues("succeeded").Inc()

	return sess.Reset(), a.id, nil
}

// ApplyCoupon replaces the session's intent and amount with a coupon-priced
// intent. The payment method id is left alone.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, sess models.CheckoutSession, coupon string) (models.CheckoutSession, error) {
	if msg := validation.ValidateCoupon(coupon); msg != "" {
		return sess, validation.Errors{validation.FieldCoupon: msg}
	}

	release, err := o.acquire(ctx, sess.ID)
	if err != nil {
		return sess, err
	}
	defer release()

	ctx, span := telemetry.Tracer.Start(ctx, "checkout.apply_coupon")
	defer span.End()

	intent, err := o.backend.CreateIntent(ctx, coupon)
	if err != nil {
		f := classify(opApplyCoupon, err, fallbackMessages[opApplyCoupon])
		span.SetStatus(codes.Error, f.Message)
		telemetry.CouponApplications.WithLabelValues(string(f.Kind)).Inc()
		telemetry.Logger.Warn("Coupon rejected",
			zap.String("session_id", sess.ID),
			zap.String("kind", string(f.Kind)),
			zap.Error(err),
		)
		return sess, f
	}

	sess.Amount = intent.Amount
	sess.PaymentIntentID = intent.ID
	sess.CouponApplied = true

	telemetry.CouponApplications.WithLabelValues("applied").Inc()
	telemetry.Logger.Info("Coupon applied",
		zap.String("session_id", sess.ID),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", intent.Amount),
	)
	return sess, nil
}

func (o *Orchestrator) acquire(ctx context.Context, sessionID string) (func(), error) {
	release, err := o.locker.Acquire(ctx, fmt.Sprintf("checkout_lock:%s", sessionID), o.lockTTL)
	if errors.Is(err, lock.ErrLocked) {
		return nil, ErrSubmissionInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	return release, nil
}

func (o *Orchestrator) createIntent(ctx context.Context, sess models.CheckoutSession) (models.CheckoutSession, error) {
	intent, err := o.backend.CreateIntent(ctx, "")
	if err != nil {
		return sess, classify(opCreateIntent, err, fallbackMessages[opCreateIntent])
	}
	sess.PaymentIntentID = intent.ID
	sess.Amount = intent.Amount
	return sess, nil
}

func (o *Orchestrator) createMethod(ctx context.Context, sess models.CheckoutSession, card models.CardDetails) (models.CheckoutSession, error) {
	id, err := o.backend.CreatePaymentMethod(ctx, card)
	if err != nil {
		return sess, classify(opCreateMethod, err, fallbackMessages[opCreateMethod])
	}
	sess.PaymentMethodID = id
	return sess, nil
}

func (o *Orchestrator) confirm(ctx context.Context, sess models.CheckoutSession) (models.CheckoutSession, error) {
	if err := o.backend.ConfirmPayment(ctx, sess.PaymentIntentID, sess.PaymentMethodID); err != nil {
		return sess, classify(opConfirm, err, fallbackMessages[opConfirm])
	}
	return sess, nil
}

// attempt records one submission's transitions in the ledger, on the event
// stream, in metrics and in the log. Recording failures are logged and never
// change the checkout outcome.
type attempt struct {
	o     *Orchestrator
	id    string
	state models.CheckoutState
}

func (o *Orchestrator) begin(ctx context.Context, sess models.CheckoutSession) *attempt {
	a := &attempt{o: o, id: uuid.NewString(), state: models.StateIdle}
	if err := o.repo.InsertInitialState(ctx, a.id, sess.ID, models.StateIdle); err != nil {
		telemetry.Logger.Error("Failed to record checkout attempt",
			zap.String("attempt_id", a.id),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
	return a
}

func (a *attempt) transition(ctx context.Context, sess models.CheckoutSession, reason string) {
	from, to := a.state, sess.State
	a.state = to

	rows, err := a.o.repo.TransitionState(ctx, a.id, from, to, sess.PaymentIntentID, reason)
	switch {
	case err != nil:
		telemetry.Logger.Error("Failed to record checkout transition",
			zap.String("attempt_id", a.id),
			zap.Error(err),
		)
	case rows == 0:
		telemetry.Logger.Warn("Checkout ledger out of step",
			zap.String("attempt_id", a.id),
			zap.String("from_state", string(from)),
			zap.String("to_state", string(to)),
		)
	}

	event := models.CheckoutEvent{
		AttemptID:       a.id,
		SessionID:       sess.ID,
		State:           to,
		PreviousState:   from,
		PaymentIntentID: sess.PaymentIntentID,
		Amount:          sess.Amount,
		Reason:          reason,
		Timestamp:       time.Now().UTC(),
	}
	pubCtx, cancel := context.WithTimeout(ctx, a.o.publishTimeout)
	defer cancel()
	if err := a.o.publisher.Publish(pubCtx, sess.ID, event); err != nil {
		telemetry.Logger.Warn("Failed to publish checkout event",
			zap.String("attempt_id", a.id),
			zap.Error(err),
		)
	}

	telemetry.CheckoutTransitions.WithLabelValues(string(from), string(to)).Inc()

	fields := []zap.Field{
		zap.String("attempt_id", a.id),
		zap.String("session_id", sess.ID),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
	}
	if to.Settled() {
		telemetry.Logger.Info("Checkout attempt settled", append(fields, zap.String("reason", reason))...)
		return
	}
	telemetry.Logger.Debug("Checkout state transition", fields...)
}
