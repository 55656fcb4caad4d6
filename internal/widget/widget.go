// Package widget implements the client side of the website chat: a
// transcript that grows as the visitor sends messages and the assistant
// answers, with at most one request in flight.
package widget

import (
	"context"
	"strings"
	"sync"

	"hospital-portal/internal/form"
)

// FallbackMessage replaces the reply whenever the endpoint fails.
const FallbackMessage = "System is busy, please try again later."

// Message is one transcript entry.
type Message struct {
	Text    string
	FromBot bool
}

// Endpoint delivers a message to the assistant and returns its reply.
type Endpoint interface {
	Send(ctx context.Context, message string) (string, error)
}

// Widget holds the transcript, the input buffer and the loading gate.  It
// is safe for concurrent use.
type Widget struct {
	endpoint Endpoint
	onChange func()

	mu         sync.Mutex
	transcript []Message
	input      string
	gate       form.Tracker
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Widget.
type Option func(*Widget)

// WithOnChange registers a callback run after every transcript change made
// by a reply.  It runs on the request goroutine without locks held.
func WithOnChange(fn func()) Option {
	return func(w *Widget) { w.onChange = fn }
}

// New returns an empty widget sending through endpoint.
func New(endpoint Endpoint, opts ...Option) *Widget {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{endpoint: endpoint, ctx: ctx, cancel: cancel}
	for _, o := range opts {
		o(w)
	}
	return w
}

// SetInput replaces the pending input buffer.
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	w.input = text
	w.mu.Unlock()
}

// Input returns the pending input buffer.
func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// Submit sends the input buffer.  See Send.
func (w *Widget) Submit() bool {
	return w.Send(w.Input())
}

// Send appends text as a visitor message and asks the endpoint for a reply
// in the background.  Blank text, a request already in flight or a closed
// widget make it a no-op that returns false.
//
// When the request settles the reply, or FallbackMessage on any error, is
// appended and the loading gate is released.
func (w *Widget) Send(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	w.mu.Lock()
	if w.closed || !w.gate.Begin() {
		w.mu.Unlock()
		return false
	}
	w.transcript = append(w.transcript, Message{Text: text})
	w.input = ""
	w.wg.Add(1)
	w.mu.Unlock()

	go w.request(text)
	return true
}

func (w *Widget) request(text string) {
	defer w.wg.Done()
	reply, err := w.endpoint.Send(w.ctx, text)
	if err != nil {
		reply = FallbackMessage
	}

	w.mu.Lock()
	if w.closed {
		w.gate.Finish(err)
		w.mu.Unlock()
		return
	}
	w.transcript = append(w.transcript, Message{Text: reply, FromBot: true})
	w.gate.Finish(err)
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
}

// Transcript returns a copy of the messages, oldest first.
func (w *Widget) Transcript() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Message(nil), w.transcript...)
}

// Loading reports whether a request is in flight.
func (w *Widget) Loading() bool {
	return w.gate.Busy()
}

// Wait blocks until no request is in flight.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Close unmounts the widget.  The in-flight request, if any, is cancelled
// and its result discarded; later sends are no-ops.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
}
