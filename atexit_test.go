package lithium

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunShutdownHooksRunsInOrderOnce(t *testing.T) {
	shutdownHooks.fns = nil
	atomic.StoreUint32(&shutdownHooks.closed, 0)

	var order []int
	RegisterShutdownHook(func() error { order = append(order, 1); return nil })
	RegisterShutdownHook(func() error { order = append(order, 2); return nil })

	if err := RunShutdownHooks(); err != nil {
		t.Fatalf("RunShutdownHooks: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("hooks ran out of order: %v", order)
	}

	order = nil
	if err := RunShutdownHooks(); err != nil {
		t.Fatalf("second RunShutdownHooks: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("expected no hooks to re-run, got %v", order)
	}
}

func TestRunShutdownHooksStopsAtFirstError(t *testing.T) {
	shutdownHooks.fns = nil
	atomic.StoreUint32(&shutdownHooks.closed, 0)

	wantErr := errors.New("boom")
	ran := false
	RegisterShutdownHook(func() error { return wantErr })
	RegisterShutdownHook(func() error { ran = true; return nil })

	if err := RunShutdownHooks(); !errors.Is(err, wantErr) {
		t.Fatalf("RunShutdownHooks() = %v, want %v", err, wantErr)
	}
	if ran {
		t.Error("second hook should not have run after the first failed")
	}
}
