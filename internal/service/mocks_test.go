package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateIntent(ctx context.Context, coupon string) (*models.Intent, error) {
	args := m.Called(ctx, coupon)
	intent, _ := args.Get(0).(*models.Intent)
	return intent, args.Error(1)
}

func (m *MockBackend) CreatePaymentMethod(ctx context.Context, card models.CardDetails) (string, error) {
	args := m.Called(ctx, card)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ConfirmPayment(ctx context.Context, intentID, methodID string) error {
	args := m.Called(ctx, intentID, methodID)
	return args.Error(0)
}

func (m *MockBackend) FetchProfile(ctx context.Context) (*models.Profile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockBackend) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// recordingPublisher keeps every published payload.
type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) checkoutStates() []models.CheckoutState {
	p.mu.Lock()
	defer p.mu.Unlock()

	var states []models.CheckoutState
	for _, e := range p.events {
		if ce, ok := e.(models.CheckoutEvent); ok {
			states = append(states, ce.State)
		}
	}
	return states
}

// attemptIDs lists the distinct attempt ids in publish order.
func (p *recordingPublisher) attemptIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ids []string
	seen := make(map[string]bool)
	for _, e := range p.events {
		if ce, ok := e.(models.CheckoutEvent); ok && !seen[ce.AttemptID] {
			seen[ce.AttemptID] = true
			ids = append(ids, ce.AttemptID)
		}
	}
	return ids
}

// manualTicker delivers ticks only when the test sends them.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// tick blocks until the cooldown goroutine has received the tick.
func (t *manualTicker) tick() {
	t.ch <- time.Now()
}

// tickerFactory hands out manual tickers and remembers them.
type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	t := newManualTicker()
	f.mu.Lock()
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()
	return t
}

func (f *tickerFactory) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}
