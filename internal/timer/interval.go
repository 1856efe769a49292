package timer

import (
	"sync"
	"time"
)

// Interval is a cooperative repeating tick with explicit pause/resume/stop.
// At most one goroutine runs per Interval, and Stop guarantees it exits, so
// no stale ticks survive teardown.
type Interval struct {
	mu      sync.Mutex
	period  time.Duration
	fn      func()
	ticker  *time.Ticker
	done    chan struct{}
	paused  bool
	running bool
}

// NewInterval creates an interval that invokes fn every period once started.
func NewInterval(period time.Duration, fn func()) *Interval {
	return &Interval{period: period, fn: fn}
}

// Start begins ticking. Starting an already running interval is a no-op.
func (iv *Interval) Start() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if iv.running {
		iv.paused = false
		return
	}
	iv.running = true
	iv.paused = false
	iv.ticker = time.NewTicker(iv.period)
	iv.done = make(chan struct{})
	go iv.loop(iv.ticker, iv.done)
}

func (iv *Interval) loop(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			iv.mu.Lock()
			paused := iv.paused
			iv.mu.Unlock()
			if !paused {
				iv.fn()
			}
		}
	}
}

// Pause suspends ticking without tearing down the goroutine.
func (iv *Interval) Pause() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.paused = true
}

// Resume continues a paused interval.
func (iv *Interval) Resume() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if iv.running {
		iv.paused = false
	}
}

// Stop cancels the interval and its goroutine. Safe to call repeatedly.
func (iv *Interval) Stop() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if !iv.running {
		return
	}
	iv.running = false
	iv.paused = false
	iv.ticker.Stop()
	close(iv.done)
	iv.ticker = nil
	iv.done = nil
}
