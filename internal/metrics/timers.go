// Package metrics keeps wall-clock timers for the phases of a command run.
package metrics

import (
	"sort"
	"sync"
	"time"
)

type Timers struct {
	Timers map[string]*Timer `json:"timers,omitempty" yaml:"timers,omitempty"`

	mu    sync.Mutex
	last  string
	order []string
	now   func() time.Time
}

func NewTimers() *Timers {
	return &Timers{Timers: make(map[string]*Timer), now: time.Now}
}

// set starts k, or stops it when it is already running.
func (ts *Timers) set(k string) {
	t, ok := ts.Timers[k]
	if !ok {
		ts.Timers[k] = &Timer{start: ts.now()}
		ts.order = append(ts.order, k)
		return
	}
	t.Total = ts.now().Sub(t.start).Seconds()
}

// Set stops the previous lap and starts k.
func (ts *Timers) Set(k string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.last != "" {
		ts.set(ts.last)
	}
	ts.set(k)
	ts.last = k
}

// Add starts an independent timer, or stops it on the second call.
func (ts *Timers) Add(k string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.set(k)
}

// Stop closes the running lap.
func (ts *Timers) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.last != "" {
		ts.set(ts.last)
		ts.last = ""
	}
}

// Names returns the timers in the order they were started.
func (ts *Timers) Names() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.order...)
}

// Seconds returns all measured totals.
func (ts *Timers) Seconds() []float64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]float64, 0, len(ts.Timers))
	for _, t := range ts.Timers {
		out = append(out, t.Total)
	}
	sort.Float64s(out)
	return out
}

type Timer struct {
	start time.Time

	// Total time in seconds
	Total float64 `json:"seconds" yaml:"seconds"`
}
