package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yllada/vpn-connect/common"
)

func TestResult_String(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Confirmed, "confirmed"},
		{Declined, "declined"},
		{Abandoned, "abandoned"},
		{Result(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Result(%d).String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestHandshake_ResolvesExactlyOnce(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(h *Handshake) error
		want    Result
	}{
		{"confirm", (*Handshake).Confirm, Confirmed},
		{"decline", (*Handshake).Decline, Declined},
		{"abandon", (*Handshake).Abandon, Abandoned},
		{"close", func(h *Handshake) error { h.Close(); return nil }, Abandoned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			ticket, err := h.Request("Enable custom DNS?")
			if err != nil {
				t.Fatalf("Request() error = %v", err)
			}
			if h.State() != Pending {
				t.Errorf("State() = %v, want pending", h.State())
			}

			if err := tt.resolve(h); err != nil {
				t.Fatalf("resolve error = %v", err)
			}

			got, err := ticket.Wait(context.Background())
			if err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Wait() = %v, want %v", got, tt.want)
			}
			if h.State() != Idle {
				t.Errorf("State() after resolve = %v, want idle", h.State())
			}
			if last, ok := h.LastOutcome(); !ok || last != tt.want {
				t.Errorf("LastOutcome() = %v, %v", last, ok)
			}

			// Any further resolution attempt is rejected and the result is stable.
			for _, again := range []func() error{h.Confirm, h.Decline, h.Abandon} {
				if err := again(); !errors.Is(err, common.ErrNotPending) {
					t.Errorf("second resolution error = %v, want ErrNotPending", err)
				}
			}
			h.Close()
			if got, _ := ticket.Wait(context.Background()); got != tt.want {
				t.Errorf("result changed to %v after further resolution attempts", got)
			}
		})
	}
}

func TestHandshake_AlreadyPending(t *testing.T) {
	h := New()
	first, err := h.Request("first")
	if err != nil {
		t.Fatal(err)
	}

	second, err := h.Request("second")
	if !errors.Is(err, common.ErrAlreadyPending) {
		t.Errorf("second Request() error = %v, want ErrAlreadyPending", err)
	}
	if second != nil {
		t.Error("second Request() should not return a ticket")
	}
	if h.Pending() != first {
		t.Error("original ticket should remain pending")
	}
	select {
	case <-first.Done():
		t.Error("original ticket should not be resolved by a rejected request")
	default:
	}

	if err := h.Confirm(); err != nil {
		t.Fatal(err)
	}
	if got, _ := first.Wait(context.Background()); got != Confirmed {
		t.Errorf("first ticket = %v, want confirmed", got)
	}
}

func TestHandshake_NewRequestAfterResolution(t *testing.T) {
	h := New()
	a, _ := h.Request("a")
	_ = h.Decline()

	b, err := h.Request("b")
	if err != nil {
		t.Fatalf("Request() after resolution error = %v", err)
	}
	if a.ID == b.ID {
		t.Error("tickets should have distinct IDs")
	}
}

func TestHandshake_ResolveWhenIdle(t *testing.T) {
	h := New()
	if err := h.Confirm(); !errors.Is(err, common.ErrNotPending) {
		t.Errorf("Confirm() when idle error = %v, want ErrNotPending", err)
	}
	if _, ok := h.LastOutcome(); ok {
		t.Error("LastOutcome() should be unset before any resolution")
	}
}

func TestHandshake_ClosedRejectsRequests(t *testing.T) {
	h := New()
	h.Close()
	h.Close()

	if _, err := h.Request("x"); !errors.Is(err, common.ErrHandshakeClosed) {
		t.Errorf("Request() after Close error = %v, want ErrHandshakeClosed", err)
	}
}

func TestTicket_WaitCancelled(t *testing.T) {
	h := New()
	ticket, _ := h.Request("x")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := ticket.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
	if h.State() != Pending {
		t.Error("cancelling a wait must not resolve the ticket")
	}

	// The handshake can still resolve it afterwards.
	if err := h.Confirm(); err != nil {
		t.Fatal(err)
	}
}

func TestTicket_WaitFromOtherGoroutine(t *testing.T) {
	h := New()
	ticket, _ := h.Request("x")

	got := make(chan Result, 1)
	go func() {
		r, err := ticket.Wait(context.Background())
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
		got <- r
	}()

	if err := h.Decline(); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-got:
		if r != Declined {
			t.Errorf("Wait() = %v, want declined", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released")
	}
}
