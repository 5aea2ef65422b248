// Package confirm gates privileged actions behind a single asynchronous
// user decision.
//
// A Handshake hands out at most one Ticket at a time. The goroutine that
// owns the prompt resolves it with Confirm, Decline or Abandon; any other
// goroutine may wait on the ticket. Each ticket is resolved exactly once.
package confirm

import (
	"context"

	"github.com/google/uuid"

	"github.com/yllada/vpn-connect/common"
)

// Result is the outcome of a confirmation.
type Result int

const (
	// Confirmed means the user accepted.
	Confirmed Result = iota
	// Declined means the user explicitly refused.
	Declined
	// Abandoned means the prompt went away without an answer.
	Abandoned
)

func (r Result) String() string {
	switch r {
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// State is the handshake state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Ticket is one outstanding confirmation.
type Ticket struct {
	ID     uuid.UUID
	Prompt string

	resolved bool
	result   Result
	done     chan struct{}
}

// Done returns a channel closed when the ticket is resolved.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the ticket is resolved or ctx is done. Cancelling ctx
// does not resolve the ticket.
func (t *Ticket) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Handshake serializes confirmations. Its methods must be called from a
// single goroutine; tickets may be waited on from any goroutine.
type Handshake struct {
	pending *Ticket
	closed  bool
	last    Result
	hasLast bool
}

// New creates an idle handshake.
func New() *Handshake {
	return &Handshake{}
}

// State returns Pending while a ticket is outstanding.
func (h *Handshake) State() State {
	if h.pending != nil {
		return Pending
	}
	return Idle
}

// Pending returns the outstanding ticket, or nil.
func (h *Handshake) Pending() *Ticket {
	return h.pending
}

// LastOutcome returns the result of the most recently resolved ticket.
func (h *Handshake) LastOutcome() (Result, bool) {
	return h.last, h.hasLast
}

// Request opens a new ticket. It fails with common.ErrAlreadyPending while
// another ticket is outstanding, leaving that ticket untouched.
func (h *Handshake) Request(prompt string) (*Ticket, error) {
	if h.closed {
		return nil, common.ErrHandshakeClosed
	}
	if h.pending != nil {
		return nil, common.ErrAlreadyPending
	}
	t := &Ticket{
		ID:     uuid.New(),
		Prompt: prompt,
		done:   make(chan struct{}),
	}
	h.pending = t
	common.LogDebug("Confirmation %s requested: %q", t.ID, prompt)
	return t, nil
}

// Confirm resolves the outstanding ticket as Confirmed.
func (h *Handshake) Confirm() error {
	return h.resolve(Confirmed)
}

// Decline resolves the outstanding ticket as Declined.
func (h *Handshake) Decline() error {
	return h.resolve(Declined)
}

// Abandon resolves the outstanding ticket as Abandoned.
func (h *Handshake) Abandon() error {
	return h.resolve(Abandoned)
}

// Close abandons any outstanding ticket and rejects further requests.
// It is safe to call more than once.
func (h *Handshake) Close() {
	if h.closed {
		return
	}
	if h.pending != nil {
		_ = h.resolve(Abandoned)
	}
	h.closed = true
}

func (h *Handshake) resolve(r Result) error {
	t := h.pending
	if t == nil || t.resolved {
		return common.ErrNotPending
	}
	t.resolved = true
	t.result = r
	close(t.done)

	h.pending = nil
	h.last = r
	h.hasLast = true
	common.LogDebug("Confirmation %s %s", t.ID, r)
	return nil
}
