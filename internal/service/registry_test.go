package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(ttl time.Duration) (*Registry, *fakeClock, *tickerFactory) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tickers := &tickerFactory{}
	r := NewRegistry(ttl, tickers.New)
	r.now = clock.Now
	return r, clock, tickers
}

func TestRegistry_SessionLifecycle(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)

	sess := r.CreateSession()
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, models.DefaultAmount, sess.Amount)
	assert.Equal(t, models.StateIdle, sess.State)

	snap, err := r.Session(sess.ID)
	require.NoError(t, err)
	assert.False(t, snap.IsSubmitting)

	assert.True(t, r.DeleteSession(sess.ID))
	assert.False(t, r.DeleteSession(sess.ID))

	_, err = r.Session(sess.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRegistry_BeginOperationGuardsReentry(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)
	sess := r.CreateSession()

	got, err := r.BeginOperation(sess.ID)
	require.NoError(t, err)

	_, err = r.BeginOperation(sess.ID)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	snap, err := r.Session(sess.ID)
	require.NoError(t, err)
	assert.True(t, snap.IsSubmitting)

	got.PaymentIntentID = "pi_1234567890abcdef"
	r.EndOperation(got)

	snap, err = r.Session(sess.ID)
	require.NoError(t, err)
	assert.False(t, snap.IsSubmitting)
	assert.Equal(t, "pi_1234567890abcdef", snap.PaymentIntentID)

	_, err = r.BeginOperation("missing")
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRegistry_EndOperationAfterDelete(t *testing.T) {
	r, _, _ := newTestRegistry(time.Minute)
	sess := r.CreateSession()

	got, err := r.BeginOperation(sess.ID)
	require.NoError(t, err)
	r.DeleteSession(sess.ID)
	r.EndOperation(got)

	_, err = r.Session(sess.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRegistry_Sweep(t *testing.T) {
	r, clock, _ := newTestRegistry(time.Minute)

	idle := r.CreateSession()
	busy := r.CreateSession()
	_, err := r.BeginOperation(busy.ID)
	require.NoError(t, err)
	idleView := r.CreateView()
	coolingView := r.CreateView()
	coolingView.cooldown.Start(coolingView.ctx, 600)
	defer coolingView.Close()

	clock.Advance(30 * time.Second)
	fresh := r.CreateSession()
	assert.Zero(t, r.Sweep())

	clock.Advance(45 * time.Second)
	assert.Equal(t, 2, r.Sweep())

	_, err = r.Session(idle.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
	_, err = r.Session(busy.ID)
	assert.NoError(t, err)
	_, err = r.Session(fresh.ID)
	assert.NoError(t, err)
	_, err = r.View(idleView.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
	_, err = r.View(coolingView.ID)
	assert.NoError(t, err)
}

func TestRegistry_DeleteViewCancelsCooldown(t *testing.T) {
	r, _, tickers := newTestRegistry(time.Minute)
	view := r.CreateView()

	got, err := r.View(view.ID)
	require.NoError(t, err)
	assert.Same(t, view, got)

	view.cooldown.Start(view.ctx, 300)
	require.Eventually(t, func() bool { return tickers.last() != nil }, time.Second, time.Millisecond)

	assert.True(t, r.DeleteView(view.ID))
	assert.False(t, view.Status().Disabled)
	assert.True(t, tickers.last().isStopped())
	assert.False(t, r.DeleteView(view.ID))
}

func TestRegistry_RunClosesViewsOnShutdown(t *testing.T) {
	r, _, tickers := newTestRegistry(time.Minute)
	view := r.CreateView()
	view.cooldown.Start(view.ctx, 300)
	require.Eventually(t, func() bool { return tickers.last() != nil }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.True(t, tickers.last().isStopped())
	_, err := r.View(view.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
}
