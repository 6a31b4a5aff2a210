// Package metrics keeps the wall time of the phases of a run.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Timers struct {
	Timers map[string]*Timer `json:"timers,omitempty" yaml:"timers,omitempty"`
	last   string
	now    func() time.Time
}

func NewTimers() Timers {
	return Timers{Timers: make(map[string]*Timer), now: time.Now}
}

// set starts the timer k, or stops it when it is already running.
func (ts *Timers) set(k string) {
	if ts.Timers == nil {
		ts.Timers = make(map[string]*Timer)
	}
	if ts.now == nil {
		ts.now = time.Now
	}
	t, ok := ts.Timers[k]
	if !ok {
		ts.Timers[k] = &Timer{start: ts.now()}
		return
	}
	t.Total = ts.now().Sub(t.start).Seconds()
}

// Set stops the last phase started with Set and starts k (lap).
func (ts *Timers) Set(k string) {
	if ts.last != "" && ts.last != k {
		ts.set(ts.last)
	}
	ts.set(k)
	ts.last = k
}

// Add starts the timer k, a second call stops it.
func (ts *Timers) Add(k string) {
	ts.set(k)
}

// String lists the stopped timers sorted by name: "a=0.100s b=1.000s".
func (ts *Timers) String() string {
	keys := make([]string, 0, len(ts.Timers))
	for k := range ts.Timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.3fs", k, ts.Timers[k].Total))
	}
	return strings.Join(parts, " ")
}

type Timer struct {
	start time.Time

	// Total time in seconds
	Total float64 `json:"seconds" yaml:"seconds"`
}
