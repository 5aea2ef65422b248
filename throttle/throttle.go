// Package throttle suppresses repeated presses of a control within a
// fixed time window.
package throttle

import (
	"time"

	"github.com/yllada/vpn-connect/common"
)

// Throttle admits an action at most once per window. The first attempt is
// always admitted. A Throttle is owned by a single goroutine and must not
// be shared.
type Throttle struct {
	window time.Duration
	clock  func() time.Time
	last   time.Time
}

// New creates a throttle. A nil clock selects time.Now.
func New(window time.Duration, clock func() time.Time) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	return &Throttle{window: window, clock: clock}
}

// Window returns the suppression window.
func (t *Throttle) Window() time.Duration {
	return t.window
}

// Attempt runs action if at least one window has passed since the last
// admitted attempt and reports whether it ran. Suppressed attempts are
// dropped, not deferred.
func (t *Throttle) Attempt(action func()) bool {
	now := t.clock()
	if !t.last.IsZero() && now.Sub(t.last) < t.window {
		common.LogDebug("Throttled: %v since last accepted attempt", now.Sub(t.last))
		return false
	}
	t.last = now
	action()
	return true
}

// Reset forgets the last admitted attempt.
func (t *Throttle) Reset() {
	t.last = time.Time{}
}
