package mongo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeLockManager struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockManager() *fakeLockManager {
	return &fakeLockManager{held: make(map[string]bool)}
}

func (f *fakeLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return ErrLockHeld
	}
	f.held[key] = true
	return nil
}

func (f *fakeLockManager) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

func TestAcquireWait_Immediate(t *testing.T) {
	locks := newFakeLockManager()

	if err := AcquireWait(context.Background(), locks, "slot-1", time.Minute, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !locks.held["slot-1"] {
		t.Error("expected lock to be held after acquisition")
	}
}

func TestAcquireWait_WaitsForRelease(t *testing.T) {
	locks := newFakeLockManager()
	if err := locks.Acquire(context.Background(), "slot-1", time.Minute); err != nil {
		t.Fatalf("failed to pre-hold lock: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = locks.Release(context.Background(), "slot-1")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := AcquireWait(ctx, locks, "slot-1", time.Minute, time.Millisecond); err != nil {
		t.Fatalf("expected acquisition after release, got: %v", err)
	}
}

func TestAcquireWait_ExpiresWithHolder(t *testing.T) {
	locks := newFakeLockManager()
	if err := locks.Acquire(context.Background(), "slot-1", time.Minute); err != nil {
		t.Fatalf("failed to pre-hold lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := AcquireWait(ctx, locks, "slot-1", time.Minute, time.Millisecond)
	if !errors.Is(err, ErrLockWaitExpired) {
		t.Fatalf("expected ErrLockWaitExpired, got: %v", err)
	}
}

func TestAcquireWait_PropagatesUnknownErrors(t *testing.T) {
	broken := &errorLockManager{err: errors.New("connection reset")}

	err := AcquireWait(context.Background(), broken, "slot-1", time.Minute, time.Millisecond)
	if err == nil || errors.Is(err, ErrLockWaitExpired) {
		t.Fatalf("expected the storage error to surface, got: %v", err)
	}
}

type errorLockManager struct {
	err error
}

func (e *errorLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	return e.err
}

func (e *errorLockManager) Release(ctx context.Context, key string) error {
	return nil
}
