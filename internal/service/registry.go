package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

type sessionEntry struct {
	session  models.CheckoutSession
	busy     bool
	lastSeen time.Time
}

type viewEntry struct {
	view     *RecoveryView
	lastSeen time.Time
}

// SessionSnapshot is a checkout session as the view renders it.
type SessionSnapshot struct {
	models.CheckoutSession
	IsSubmitting bool `json:"isSubmitting"`
}

// Registry keeps the live checkout sessions and recovery views in memory.
// Entries not touched for longer than the TTL are swept; a swept recovery
// view has its cooldown cancelled.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	views     map[string]*viewEntry
	ttl       time.Duration
	newTicker TickerFunc
	now       func() time.Time
}

func NewRegistry(ttl time.Duration, newTicker TickerFunc) *Registry {
	return &Registry{
		sessions:  make(map[string]*sessionEntry),
		views:     make(map[string]*viewEntry),
		ttl:       ttl,
		newTicker: newTicker,
		now:       time.Now,
	}
}

func (r *Registry) CreateSession() models.CheckoutSession {
	sess := models.NewCheckoutSession(uuid.NewString())

	r.mu.Lock()
	r.sessions[sess.ID] = &sessionEntry{session: sess, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	telemetry.ActiveViews.WithLabelValues("checkout").Set(float64(n))
	return sess
}

func (r *Registry) Session(id string) (SessionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return SessionSnapshot{}, ErrViewNotFound
	}
	e.lastSeen = r.now()
	return SessionSnapshot{CheckoutSession: e.session, IsSubmitting: e.busy}, nil
}

// BeginOperation marks the session busy and hands out its current state.
// A session that is already busy yields ErrSubmissionInProgress.
func (r *Registry) BeginOperation(id string) (models.CheckoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return models.CheckoutSession{}, ErrViewNotFound
	}
	if e.busy {
		return models.CheckoutSession{}, ErrSubmissionInProgress
	}
	e.busy = true
	e.lastSeen = r.now()
	return e.session, nil
}

// EndOperation stores the session returned by the orchestrator and clears
// the busy flag. A session deleted meanwhile stays deleted.
func (r *Registry) EndOperation(sess models.CheckoutSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sess.ID]
	if !ok {
		return
	}
	e.session = sess
	e.busy = false
	e.lastSeen = r.now()
}

func (r *Registry) DeleteSession(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	telemetry.ActiveViews.WithLabelValues("checkout").Set(float64(n))
	return ok
}

func (r *Registry) CreateView() *RecoveryView {
	v := NewRecoveryView(uuid.NewString(), r.newTicker)

	r.mu.Lock()
	r.views[v.ID] = &viewEntry{view: v, lastSeen: r.now()}
	n := len(r.views)
	r.mu.Unlock()

	telemetry.ActiveViews.WithLabelValues("recovery").Set(float64(n))
	return v
}

func (r *Registry) View(id string) (*RecoveryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	e.lastSeen = r.now()
	return e.view, nil
}

func (r *Registry) DeleteView(id string) bool {
	r.mu.Lock()
	e, ok := r.views[id]
	delete(r.views, id)
	n := len(r.views)
	r.mu.Unlock()

	if ok {
		e.view.Close()
	}
	telemetry.ActiveViews.WithLabelValues("recovery").Set(float64(n))
	return ok
}

// Sweep drops idle entries and returns how many went. Busy sessions and views
// still cooling down are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var (
		closed  []*RecoveryView
		removed int
	)
	for id, e := range r.sessions {
		if !e.busy && e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	for id, e := range r.views {
		if e.lastSeen.Before(cutoff) && !e.view.cooldown.Active() {
			delete(r.views, id)
			closed = append(closed, e.view)
		}
	}
	removed += len(closed)
	sessions, views := len(r.sessions), len(r.views)
	r.mu.Unlock()

	for _, v := range closed {
		v.Close()
	}

	telemetry.ActiveViews.WithLabelValues("checkout").Set(float64(sessions))
	telemetry.ActiveViews.WithLabelValues("recovery").Set(float64(views))
	return removed
}

// Run sweeps every interval until ctx is done, then closes every view.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				telemetry.Logger.Debug("Swept idle views", zap.Int("removed", n))
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*viewEntry)
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()

	for _, e := range views {
		e.view.Close()
	}
}
