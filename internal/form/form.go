// Package form tracks submissions so that a form instance never has more
// than one request outstanding.
package form

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a submission is attempted while another one of
// the same form is still in flight.
var ErrBusy = errors.New("form: submission already in progress")

// State is the lifecycle of one form instance.
type State int

const (
	Idle State = iota
	Submitting
	Failed
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Failed:
		return "error"
	case Done:
		return "done"
	}
	return "unknown"
}

// Tracker is the state machine of a single form instance.  Any settled
// state may start a new submission; Submitting may only settle.
type Tracker struct {
	mu    sync.Mutex
	state State
	err   error
}

// Begin moves the tracker to Submitting.  It returns false, leaving the
// state untouched, when a submission is already in flight.
func (t *Tracker) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Submitting {
		return false
	}
	t.state = Submitting
	t.err = nil
	return true
}

// Finish settles the in-flight submission as Done, or Failed when err is
// non-nil.  Calling Finish without a submission in flight does nothing.
func (t *Tracker) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Submitting {
		return
	}
	t.err = err
	if err != nil {
		t.state = Failed
	} else {
		t.state = Done
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error of the last failed submission.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Busy reports whether a submission is in flight.
func (t *Tracker) Busy() bool {
	return t.State() == Submitting
}

// Registry holds the in-flight submissions of many form instances, keyed by
// an arbitrary instance key such as client session plus form path.  Settled
// instances are dropped so the registry only grows with concurrency.
type Registry struct {
	mu    sync.Mutex
	forms map[string]*Tracker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*Tracker)}
}

// Begin starts a submission of the instance named key.  When another
// submission of key is in flight it returns ErrBusy.  Otherwise the
// returned function must be called exactly once with the outcome.
func (r *Registry) Begin(key string) (func(error), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.forms[key]
	if !ok {
		t = &Tracker{}
		r.forms[key] = t
	}
	if !t.Begin() {
		return nil, ErrBusy
	}
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			t.Finish(err)
			r.mu.Lock()
			if r.forms[key] == t {
				delete(r.forms, key)
			}
			r.mu.Unlock()
		})
	}, nil
}

// InFlight returns the number of submissions currently outstanding.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.forms {
		if t.Busy() {
			n++
		}
	}
	return n
}
