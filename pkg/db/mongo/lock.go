package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const lockCollectionName = "Slot_locks"

var (
	// ErrLockHeld is returned by Acquire when another request currently
	// holds the slot. Callers decide whether to wait and retry or give up.
	ErrLockHeld = errors.New("slot lock already held")

	// ErrLockWaitExpired is returned by AcquireWait when the context ended
	// before the holder released the slot.
	ErrLockWaitExpired = errors.New("slot lock wait expired")
)

// LockManager is the store-level exclusive lock primitive. A lock is scoped
// to an opaque key (one slot coordinate) and lives until released or until
// its TTL expires.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type mongoLockManager struct {
	collection *mongo.Collection
}

func NewLockManager(db *mongo.Database) LockManager {
	return &mongoLockManager{
		collection: db.Collection(lockCollectionName),
	}
}

func (m *mongoLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	now := time.Now().UTC()
	lock := &model.SlotLock{
		ID:        key,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := m.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLockHeld
		}
		return err
	}
	return nil
}

func (m *mongoLockManager) Release(ctx context.Context, key string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// AcquireWait blocks on a held lock, polling every retryInterval until the
// context deadline. This is the store-level lock-wait: a caller racing for a
// slot waits for the current holder rather than failing immediately.
func AcquireWait(ctx context.Context, locks LockManager, key string, ttl, retryInterval time.Duration) error {
	for {
		err := locks.Acquire(ctx, key, ttl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrLockWaitExpired, key)
		case <-time.After(retryInterval):
		}
	}
}
