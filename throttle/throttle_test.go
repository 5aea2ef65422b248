package throttle

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestThrottle_Attempt(t *testing.T) {
	tests := []struct {
		name    string
		offsets []time.Duration // delay before each attempt
		want    int
	}{
		{"single", []time.Duration{0}, 1},
		{"twice within window", []time.Duration{0, 999 * time.Millisecond}, 1},
		{"twice at window", []time.Duration{0, 1000 * time.Millisecond}, 2},
		{"twice after window", []time.Duration{0, 1001 * time.Millisecond}, 2},
		{"rapid burst", []time.Duration{0, 100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, 1},
		{"burst then pause", []time.Duration{0, 500 * time.Millisecond, 600 * time.Millisecond}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			th := New(1000*time.Millisecond, clock.Now)

			ran := 0
			for _, d := range tt.offsets {
				clock.Advance(d)
				th.Attempt(func() { ran++ })
			}
			if ran != tt.want {
				t.Errorf("action ran %d times, want %d", ran, tt.want)
			}
		})
	}
}

func TestThrottle_SuppressedAttemptDoesNotExtendWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	th := New(time.Second, clock.Now)

	ran := 0
	th.Attempt(func() { ran++ })
	clock.Advance(900 * time.Millisecond)
	if th.Attempt(func() { ran++ }) {
		t.Error("attempt inside the window should be suppressed")
	}
	clock.Advance(100 * time.Millisecond)
	if !th.Attempt(func() { ran++ }) {
		t.Error("attempt one window after the first accepted one should run")
	}
	if ran != 2 {
		t.Errorf("action ran %d times, want 2", ran)
	}
}

func TestThrottle_FirstAttemptAlwaysRuns(t *testing.T) {
	// A clock at the zero time must not be mistaken for a recent attempt.
	th := New(time.Hour, func() time.Time { return time.Time{}.Add(time.Nanosecond) })
	if !th.Attempt(func() {}) {
		t.Error("first attempt should always run")
	}
}

func TestThrottle_Reset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	th := New(time.Second, clock.Now)

	th.Attempt(func() {})
	th.Reset()
	if !th.Attempt(func() {}) {
		t.Error("attempt after Reset should run")
	}
}

func TestNew_DefaultClock(t *testing.T) {
	th := New(time.Second, nil)
	if th.Window() != time.Second {
		t.Errorf("Window() = %v, want 1s", th.Window())
	}
	if !th.Attempt(func() {}) {
		t.Error("first attempt should run with the default clock")
	}
}
