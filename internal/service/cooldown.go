package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ticker is the part of *time.Ticker the cooldown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Cooldown counts down whole seconds on a background ticker. Each Start
// replaces the previous run; a run ends at zero, on Cancel, or when the
// context it was started with is done, and it always stops its ticker.
type Cooldown struct {
	newTicker TickerFunc

	mu        sync.Mutex
	remaining int
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCooldown(newTicker TickerFunc) *Cooldown {
	if newTicker == nil {
		newTicker = NewStdTicker
	}
	return &Cooldown{newTicker: newTicker}
}

// Start begins a countdown of seconds, cancelling any run in progress.
func (c *Cooldown) Start(ctx context.Context, seconds int) {
	if seconds <= 0 {
		c.Cancel()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	prevCancel, prevDone := c.cancel, c.done
	c.gen++
	gen := c.gen
	c.remaining = seconds
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	go c.run(runCtx, cancel, gen, done)
}

func (c *Cooldown) run(ctx context.Context, cancel context.CancelFunc, gen uint64, done chan struct{}) {
	defer close(done)
	defer cancel()

	t := c.newTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if c.gen == gen {
				c.remaining = 0
			}
			c.mu.Unlock()
			return
		case <-t.C():
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				return
			}
			c.remaining--
			finished := c.remaining <= 0
			if finished {
				c.remaining = 0
			}
			c.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

// Cancel stops the current run, if any, and waits for its goroutine to exit.
func (c *Cooldown) Cancel() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.gen++
	c.remaining = 0
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Label renders the remaining time the way the submit button shows it,
// e.g. "Wait 4:59". It is empty once the cooldown is over.
func (c *Cooldown) Label() string {
	r := c.Remaining()
	if r <= 0 {
		return ""
	}
	return fmt.Sprintf("Wait %d:%02d", r/60, r%60)
}
