package poller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Muse_MCP/internal/upstream"
)

func newFastPoller() *Poller {
	return &Poller{Interval: time.Millisecond, MaxAttempts: 30}
}

func TestWait_CompletesOnLastAttempt(t *testing.T) {
	calls := 0
	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		calls++
		if calls == 30 {
			return &upstream.PollOutcome{Done: true, FileRef: "files/video-123"}, nil
		}
		return &upstream.PollOutcome{Done: false}, nil
	}

	fileRef, err := newFastPoller().Wait(context.Background(), &upstream.OperationHandle{ID: "op-1"}, poll)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if fileRef != "files/video-123" {
		t.Errorf("expected file ref files/video-123, got %q", fileRef)
	}
	if calls != 30 {
		t.Errorf("expected exactly 30 poll calls, got %d", calls)
	}
}

func TestWait_BudgetExhausted(t *testing.T) {
	calls := 0
	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		calls++
		return &upstream.PollOutcome{Done: false}, nil
	}

	_, err := newFastPoller().Wait(context.Background(), &upstream.OperationHandle{ID: "op-2"}, poll)
	var budgetErr *ErrBudgetExhausted
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if budgetErr.OperationID != "op-2" {
		t.Errorf("expected the operation id in the error, got %q", budgetErr.OperationID)
	}
	if calls != 30 {
		t.Errorf("expected exactly 30 poll calls, got %d", calls)
	}
}

func TestWait_TransportMissesConsumeBudget(t *testing.T) {
	calls := 0
	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		calls++
		if calls < 5 {
			return nil, fmt.Errorf("connection reset")
		}
		return &upstream.PollOutcome{Done: true, FileRef: "files/video-456"}, nil
	}

	fileRef, err := newFastPoller().Wait(context.Background(), &upstream.OperationHandle{ID: "op-3"}, poll)
	if err != nil {
		t.Fatalf("Wait() error = %v, expected transport misses to be tolerated", err)
	}
	if fileRef != "files/video-456" {
		t.Errorf("expected file ref files/video-456, got %q", fileRef)
	}
	if calls != 5 {
		t.Errorf("expected 5 poll calls, got %d", calls)
	}
}

func TestWait_GenerationErrorAborts(t *testing.T) {
	calls := 0
	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		calls++
		return nil, &upstream.GenerationError{Op: "video generation", Reason: "prompt rejected"}
	}

	_, err := newFastPoller().Wait(context.Background(), &upstream.OperationHandle{ID: "op-4"}, poll)
	var genErr *upstream.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError to abort the loop, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single poll call before aborting, got %d", calls)
	}
}

func TestWait_DoneWithoutFileRefKeepsPolling(t *testing.T) {
	calls := 0
	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		calls++
		if calls < 3 {
			// upstream reports done before the asset exists
			return &upstream.PollOutcome{Done: true, FileRef: ""}, nil
		}
		return &upstream.PollOutcome{Done: true, FileRef: "files/video-789"}, nil
	}

	fileRef, err := newFastPoller().Wait(context.Background(), &upstream.OperationHandle{ID: "op-5"}, poll)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if fileRef != "files/video-789" {
		t.Errorf("expected file ref files/video-789, got %q", fileRef)
	}
	if calls != 3 {
		t.Errorf("expected 3 poll calls, got %d", calls)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poll := func(ctx context.Context, h *upstream.OperationHandle) (*upstream.PollOutcome, error) {
		t.Fatal("poll should not be called after cancellation")
		return nil, nil
	}

	p := &Poller{Interval: time.Hour, MaxAttempts: 30}
	_, err := p.Wait(ctx, &upstream.OperationHandle{ID: "op-6"}, poll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
