// Package visibility defers work until a target has been seen by the learner.
//
// Browsers detect visibility with an intersection observer; the server side receives
// those observations as reports and fans them out through an Observer.
package visibility

import "sync"

// Entry is one visibility observation of a target.
type Entry struct {
	Target       string  `json:"target"`
	Intersecting bool    `json:"intersecting"`
	Ratio        float64 `json:"ratio"`
}

// Observer delivers entries for a target to fn until the returned func is called.
type Observer interface {
	Observe(target string, fn func(Entry)) (unobserve func())
}

type Options struct {
	// Observer is nil when the host cannot detect visibility; gates then fire immediately.
	Observer Observer
	// Threshold is the minimum visible ratio, between 0 and 1.
	Threshold float64
}

// Gate runs a func once, the first time its target is reported visible.
type Gate struct {
	once      sync.Once
	mu        sync.Mutex
	fired     bool
	unobserve func()
}

// NewGate arms a gate on target. fn is called at most once.
func NewGate(opts Options, target string, fn func()) *Gate {
	g := new(Gate)
	if opts.Observer == nil {
		g.fire(fn)
		return g
	}

	unobserve := opts.Observer.Observe(target, func(e Entry) {
		if e.Intersecting && e.Ratio >= opts.Threshold {
			g.fire(fn)
		}
	})

	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		unobserve()
		return g
	}
	g.unobserve = unobserve
	g.mu.Unlock()
	return g
}

func (g *Gate) fire(fn func()) {
	g.once.Do(func() {
		g.mu.Lock()
		g.fired = true
		unobserve := g.unobserve
		g.unobserve = nil
		g.mu.Unlock()

		if unobserve != nil {
			unobserve()
		}
		fn()
	})
}

// Fired reports whether the gate has run its func.
func (g *Gate) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Close detaches the gate without firing it.
func (g *Gate) Close() {
	g.once.Do(func() {
		g.mu.Lock()
		unobserve := g.unobserve
		g.unobserve = nil
		g.mu.Unlock()

		if unobserve != nil {
			unobserve()
		}
	})
}
