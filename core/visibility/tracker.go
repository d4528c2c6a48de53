package visibility

import "sync"

// Tracker is an Observer fed by client reports.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	nextID  int
	targets map[string]map[int]func(Entry)
}

var _ Observer = (*Tracker)(nil)

func NewTracker() *Tracker {
	return &Tracker{targets: make(map[string]map[int]func(Entry))}
}

func (t *Tracker) Observe(target string, fn func(Entry)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	fns, ok := t.targets[target]
	if !ok {
		fns = make(map[int]func(Entry))
		t.targets[target] = fns
	}
	fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if fns, ok := t.targets[target]; ok {
				delete(fns, id)
				if len(fns) == 0 {
					delete(t.targets, target)
				}
			}
		})
	}
}

// Report delivers e to the observers of e.Target and returns how many were notified.
func (t *Tracker) Report(e Entry) int {
	t.mu.Lock()
	fns := make([]func(Entry), 0, len(t.targets[e.Target]))
	for _, fn := range t.targets[e.Target] {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	// observers may unobserve from their callback
	for _, fn := range fns {
		fn(e)
	}
	return len(fns)
}

// Observed reports whether target has at least one observer.
func (t *Tracker) Observed(target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.targets[target]) > 0
}
