package redis

import (
	"errors"
	"testing"
	"time"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int, cooldown time.Duration) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(maxFailures, cooldown)
	b.now = c.now
	return b, c
}

var errFail = errors.New("fail")

func fail() error { return errFail }
func ok() error   { return nil }

func TestBreaker_StartsClosed(t *testing.T) {
	b := NewBreaker(3, time.Second)
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		if err := b.Execute(fail); err != errFail {
			t.Fatalf("call %d: expected errFail, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %v", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn ran while the breaker was open")
	}
}

func TestBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	b, c := newTestBreaker(2, time.Second)
	b.Execute(fail)
	b.Execute(fail)

	c.advance(999 * time.Millisecond)
	if err := b.Execute(ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen before cooldown, got %v", err)
	}

	c.advance(time.Millisecond)
	if err := b.Execute(ok); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after a good probe, got %v", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, c := newTestBreaker(2, time.Second)
	b.Execute(fail)
	b.Execute(fail)

	c.advance(time.Second)
	b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open after a failed probe, got %v", b.State())
	}

	// the cooldown restarts at the failed probe
	c.advance(500 * time.Millisecond)
	if err := b.Execute(ok); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_OneProbeAtATime(t *testing.T) {
	b, c := newTestBreaker(1, time.Second)
	b.Execute(fail)
	c.advance(time.Second)

	err := b.Execute(func() error {
		// a second caller arriving mid-probe is rejected
		if inner := b.Execute(ok); !errors.Is(inner, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen during probe, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	b.Execute(fail)
	b.Execute(fail)
	b.Execute(ok)
	b.Execute(fail)
	b.Execute(fail)

	if b.State() != StateClosed {
		t.Errorf("expected closed, the success should reset the count, got %v", b.State())
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	b, c := newTestBreaker(1, time.Second)
	var seen []State
	b.OnStateChange = func(_, to State) { seen = append(seen, to) }

	b.Execute(fail)
	c.advance(time.Second)
	b.Execute(ok)

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, seen[i], want[i])
		}
	}
}
