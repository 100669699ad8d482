// Package debounce coalesces bursts of calls into a single call once the caller
// has gone quiet, and lets consumers drop results that a newer call has superseded.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used for viewport and refresh requests.
const DefaultDelay = 100 * time.Millisecond

type pending struct {
	timer *time.Timer
	gen   uint64
}

// Debouncer tracks one quiet-period timer and one generation counter per key.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	gens    map[string]uint64
	stopped bool
	wg      sync.WaitGroup
}

// New returns a Debouncer that waits delay after the last trigger.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pending),
		gens:    make(map[string]uint64),
	}
}

// Trigger restarts the quiet period for key and returns the generation of this call.
// fn runs on its own goroutine only if no other Trigger for key arrives within the delay.
// After Stop it returns 0 and never runs fn.
func (d *Debouncer) Trigger(key string, fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return 0
	}

	d.gens[key]++
	gen := d.gens[key]

	if p, ok := d.pending[key]; ok && p.timer.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	d.pending[key] = &pending{
		gen: gen,
		timer: time.AfterFunc(d.delay, func() {
			defer d.wg.Done()

			d.mu.Lock()
			p, ok := d.pending[key]
			if !ok || p.gen != gen {
				d.mu.Unlock()
				return
			}
			delete(d.pending, key)
			d.mu.Unlock()

			fn(gen)
		}),
	}

	return gen
}

// Generation returns the latest generation handed out for key.
func (d *Debouncer) Generation(key string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gens[key]
}

// IsCurrent reports whether gen is still the newest call for key.
func (d *Debouncer) IsCurrent(key string, gen uint64) bool {
	return gen != 0 && d.Generation(key) == gen
}

// Pending reports whether a call for key is waiting for its quiet period.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels every waiting call and blocks until running callbacks return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
