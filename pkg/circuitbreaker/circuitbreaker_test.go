package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream down")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: expected the operation error, got %v", i+1, err)
		}
	}

	if b.State() != Open {
		t.Fatalf("expected state Open after 2 failures, got %s", b.State())
	}

	err := b.Do(func() error {
		t.Fatal("the operation must not run while the circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	b := New(1, 2, time.Millisecond)

	if err := b.Do(func() error { return errUpstream }); err == nil {
		t.Fatal("expected failure")
	}
	if b.State() != Open {
		t.Fatalf("expected Open, got %s", b.State())
	}

	time.Sleep(5 * time.Millisecond)

	// Two half-open successes close the circuit again.
	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("half-open call %d failed: %v", i+1, err)
		}
	}
	if b.State() != Closed {
		t.Fatalf("expected Closed after recovery, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New(1, 1, time.Millisecond)

	b.Do(func() error { return errUpstream })
	time.Sleep(5 * time.Millisecond)

	if err := b.Do(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
		t.Fatalf("expected the operation error, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected the circuit to reopen, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New(2, 1, time.Minute)

	b.Do(func() error { return errUpstream })
	b.Do(func() error { return nil })
	b.Do(func() error { return errUpstream })

	if b.State() != Closed {
		t.Fatalf("expected Closed, a success should reset the failure count; got %s", b.State())
	}
}
