package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	classerrors "fitbook/internal/classes/errors"
	"fitbook/internal/classes/validator"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/events"
	"fitbook/pkg/logger"
	"fitbook/pkg/model"
	"fitbook/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testScheduleID = "65f0a1b2c3d4e5f6a7b8c9d0"
	testMemberID   = "member-1"
)

// stubSessionContext lets the transaction callback run without a live
// session. The embedded Session is nil and must never be touched by the
// code under test.
type stubSessionContext struct {
	context.Context
	mongo.Session
}

type mockRegistrationRepo struct {
	CreateFn                        func(ctx context.Context, registration *model.Registration) error
	FindByIDFn                      func(ctx context.Context, id string) (*model.Registration, error)
	FindActiveByMemberAndScheduleFn func(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error)
	CountActiveFn                   func(ctx context.Context, scheduleID string, onDate time.Time) (int64, error)
	UpdateStatusFn                  func(ctx context.Context, id, status string, endDate *time.Time) error
	FindByMemberFn                  func(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error)
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *model.Registration) error {
	return m.CreateFn(ctx, registration)
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	return m.FindByIDFn(ctx, id)
}

func (m *mockRegistrationRepo) FindActiveByMemberAndSchedule(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
	return m.FindActiveByMemberAndScheduleFn(ctx, memberID, scheduleID, onDate)
}

func (m *mockRegistrationRepo) CountActive(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
	return m.CountActiveFn(ctx, scheduleID, onDate)
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id, status string, endDate *time.Time) error {
	return m.UpdateStatusFn(ctx, id, status, endDate)
}

func (m *mockRegistrationRepo) FindByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error) {
	return m.FindByMemberFn(ctx, memberID, limit, offset)
}

func (m *mockRegistrationRepo) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return fn(stubSessionContext{Context: ctx})
}

type mockScheduleRepo struct {
	FindByIDFn   func(ctx context.Context, id string) (*model.ClassSchedule, error)
	FindActiveFn func(ctx context.Context, weekday string) ([]*model.ClassSchedule, error)
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*model.ClassSchedule, error) {
	return m.FindByIDFn(ctx, id)
}

func (m *mockScheduleRepo) FindActive(ctx context.Context, weekday string) ([]*model.ClassSchedule, error) {
	return m.FindActiveFn(ctx, weekday)
}

// memLockManager backs slot locks with a mutex so concurrency tests exercise
// real mutual exclusion.
type memLockManager struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLockManager() *memLockManager {
	return &memLockManager{held: make(map[string]bool)}
}

func (m *memLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return mongodb.ErrLockHeld
	}
	m.held[key] = true
	return nil
}

func (m *memLockManager) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                   logger.New(logger.Config{Output: io.Discard}),
		SlotLockTTL:           5 * time.Second,
		SlotLockRetryInterval: time.Millisecond,
		SlotLockWaitTimeout:   200 * time.Millisecond,
	}
}

func activeSchedule(capacity int) *model.ClassSchedule {
	return &model.ClassSchedule{
		ID:       testScheduleID,
		Name:     "Morning Yoga",
		Weekday:  "Monday",
		Capacity: capacity,
		Active:   true,
	}
}

func newTestService(repo *mockRegistrationRepo, schedules *mockScheduleRepo, locks mongodb.LockManager) RegistrationService {
	cfg := testConfig()
	return NewRegistrationService(repo, schedules, locks, validator.NewRegistrationValidator(cfg.Log), events.NoopEmitter{}, cfg)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code)
	}
}

func TestRegister_Success(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindActiveByMemberAndScheduleFn: func(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
			return nil, classerrors.ErrNotFound
		},
		CountActiveFn: func(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
			return 3, nil
		},
		CreateFn: func(ctx context.Context, registration *model.Registration) error {
			registration.ID = "65f0a1b2c3d4e5f6a7b8c9d1"
			return nil
		},
	}
	schedules := &mockScheduleRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
			return activeSchedule(10), nil
		},
	}

	svc := newTestService(repo, schedules, newMemLockManager())
	result, err := svc.Register(context.Background(), &validator.RegisterRequest{
		MemberID:   testMemberID,
		ScheduleID: testScheduleID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Registration.Status != model.RegistrationActive {
		t.Errorf("expected status %s, got %s", model.RegistrationActive, result.Registration.Status)
	}
	if result.Registration.EndDate != nil {
		t.Error("expected open-ended registration")
	}
	if result.Remaining != 6 {
		t.Errorf("expected 6 remaining seats, got %d", result.Remaining)
	}
	if !result.Registration.StartDate.Equal(timeslot.Today()) {
		t.Errorf("expected start date today, got %v", result.Registration.StartDate)
	}
}

func TestRegister_CapacityExceeded(t *testing.T) {
	created := false
	repo := &mockRegistrationRepo{
		FindActiveByMemberAndScheduleFn: func(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
			return nil, classerrors.ErrNotFound
		},
		CountActiveFn: func(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
			return 10, nil
		},
		CreateFn: func(ctx context.Context, registration *model.Registration) error {
			created = true
			return nil
		},
	}
	schedules := &mockScheduleRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
			return activeSchedule(10), nil
		},
	}

	svc := newTestService(repo, schedules, newMemLockManager())
	_, err := svc.Register(context.Background(), &validator.RegisterRequest{
		MemberID:   testMemberID,
		ScheduleID: testScheduleID,
	})

	assertCode(t, err, apperrors.CodeCapacityExceeded)
	if created {
		t.Error("registration must not be created when the class is full")
	}
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindActiveByMemberAndScheduleFn: func(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
			return &model.Registration{ID: "existing", MemberID: memberID, ScheduleID: scheduleID, Status: model.RegistrationActive}, nil
		},
	}
	schedules := &mockScheduleRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
			return activeSchedule(10), nil
		},
	}

	svc := newTestService(repo, schedules, newMemLockManager())
	_, err := svc.Register(context.Background(), &validator.RegisterRequest{
		MemberID:   testMemberID,
		ScheduleID: testScheduleID,
	})

	assertCode(t, err, apperrors.CodeAlreadyRegistered)
}

func TestRegister_ScheduleStateChecks(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule *model.ClassSchedule
		findErr  error
		wantCode string
	}{
		{
			name:     "not found",
			findErr:  classerrors.ErrNotFound,
			wantCode: apperrors.CodeNotFound,
		},
		{
			name: "inactive",
			schedule: &model.ClassSchedule{
				ID: testScheduleID, Capacity: 10, Active: false,
			},
			wantCode: apperrors.CodeInactive,
		},
		{
			name: "not yet available",
			schedule: &model.ClassSchedule{
				ID: testScheduleID, Capacity: 10, Active: true, ValidFrom: &future,
			},
			wantCode: apperrors.CodeNotYetAvailable,
		},
		{
			name: "ended",
			schedule: &model.ClassSchedule{
				ID: testScheduleID, Capacity: 10, Active: true, ValidUntil: &past,
			},
			wantCode: apperrors.CodeEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRegistrationRepo{}
			schedules := &mockScheduleRepo{
				FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return tt.schedule, nil
				},
			}

			svc := newTestService(repo, schedules, newMemLockManager())
			_, err := svc.Register(context.Background(), &validator.RegisterRequest{
				MemberID:   testMemberID,
				ScheduleID: testScheduleID,
			})

			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockRegistrationRepo{}, &mockScheduleRepo{}, newMemLockManager())

	_, err := svc.Register(context.Background(), &validator.RegisterRequest{
		MemberID:   "",
		ScheduleID: "not-an-object-id",
	})

	assertCode(t, err, apperrors.CodeValidation)
}

func TestRegister_LockWaitTimeout(t *testing.T) {
	locks := newMemLockManager()
	if err := locks.Acquire(context.Background(), scheduleLockKey(testScheduleID), time.Minute); err != nil {
		t.Fatalf("failed to pre-hold lock: %v", err)
	}

	svc := newTestService(&mockRegistrationRepo{}, &mockScheduleRepo{}, locks)
	_, err := svc.Register(context.Background(), &validator.RegisterRequest{
		MemberID:   testMemberID,
		ScheduleID: testScheduleID,
	})

	assertCode(t, err, apperrors.CodeTimeout)
}

// TestRegister_ConcurrentCapacity races capacity+overflow members for the
// same class through a shared in-memory ledger. Exactly capacity attempts
// must win and every loser must observe a full class, never a partial write.
func TestRegister_ConcurrentCapacity(t *testing.T) {
	const capacity = 5
	const overflow = 8

	var mu sync.Mutex
	store := make(map[string]*model.Registration)

	repo := &mockRegistrationRepo{
		FindActiveByMemberAndScheduleFn: func(ctx context.Context, memberID, scheduleID string, onDate time.Time) (*model.Registration, error) {
			mu.Lock()
			defer mu.Unlock()
			for _, reg := range store {
				if reg.MemberID == memberID && reg.ScheduleID == scheduleID && model.RegistrationCountsTowardCapacity(reg.Status) {
					return reg, nil
				}
			}
			return nil, classerrors.ErrNotFound
		},
		CountActiveFn: func(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			var count int64
			for _, reg := range store {
				if reg.ScheduleID == scheduleID && model.RegistrationCountsTowardCapacity(reg.Status) {
					count++
				}
			}
			return count, nil
		},
		CreateFn: func(ctx context.Context, registration *model.Registration) error {
			mu.Lock()
			defer mu.Unlock()
			registration.ID = registration.MemberID
			store[registration.ID] = registration
			return nil
		},
	}
	schedules := &mockScheduleRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
			return activeSchedule(capacity), nil
		},
	}

	cfg := testConfig()
	cfg.SlotLockWaitTimeout = 5 * time.Second
	svc := NewRegistrationService(repo, schedules, newMemLockManager(), validator.NewRegistrationValidator(cfg.Log), events.NoopEmitter{}, cfg)

	total := capacity + overflow
	results := make(chan error, total)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), &validator.RegisterRequest{
				MemberID:   "member-" + string(rune('a'+n)),
				ScheduleID: testScheduleID,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, fulls int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		appErr, ok := err.(*apperrors.AppError)
		if !ok || appErr.Code != apperrors.CodeCapacityExceeded {
			t.Fatalf("unexpected error: %v", err)
		}
		fulls++
	}

	if wins != capacity {
		t.Errorf("expected %d winners, got %d", capacity, wins)
	}
	if fulls != overflow {
		t.Errorf("expected %d capacity rejections, got %d", overflow, fulls)
	}
	if len(store) != capacity {
		t.Errorf("expected %d persisted registrations, got %d", capacity, len(store))
	}
}

func TestCancel_Success(t *testing.T) {
	var updatedStatus string
	var updatedEnd *time.Time

	repo := &mockRegistrationRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.Registration, error) {
			return &model.Registration{
				ID:         id,
				MemberID:   testMemberID,
				ScheduleID: testScheduleID,
				Status:     model.RegistrationActive,
			}, nil
		},
		UpdateStatusFn: func(ctx context.Context, id, status string, endDate *time.Time) error {
			updatedStatus = status
			updatedEnd = endDate
			return nil
		},
	}

	svc := newTestService(repo, &mockScheduleRepo{}, newMemLockManager())
	canceled, err := svc.Cancel(context.Background(), "65f0a1b2c3d4e5f6a7b8c9d1", testMemberID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updatedStatus != model.RegistrationCanceled {
		t.Errorf("expected status update to %s, got %s", model.RegistrationCanceled, updatedStatus)
	}
	if updatedEnd == nil || !updatedEnd.Equal(timeslot.Today()) {
		t.Errorf("expected end date today, got %v", updatedEnd)
	}
	if canceled.Status != model.RegistrationCanceled {
		t.Errorf("expected returned status %s, got %s", model.RegistrationCanceled, canceled.Status)
	}
}

func TestCancel_WrongMember(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.Registration, error) {
			return &model.Registration{ID: id, MemberID: "someone-else", Status: model.RegistrationActive}, nil
		},
	}

	svc := newTestService(repo, &mockScheduleRepo{}, newMemLockManager())
	_, err := svc.Cancel(context.Background(), "65f0a1b2c3d4e5f6a7b8c9d1", testMemberID)

	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestCancel_AlreadyCanceled(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.Registration, error) {
			return &model.Registration{ID: id, MemberID: testMemberID, Status: model.RegistrationCanceled}, nil
		},
	}

	svc := newTestService(repo, &mockScheduleRepo{}, newMemLockManager())
	_, err := svc.Cancel(context.Background(), "65f0a1b2c3d4e5f6a7b8c9d1", testMemberID)

	assertCode(t, err, apperrors.CodeAlreadyCanceled)
}

func TestCancel_NotFound(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.Registration, error) {
			return nil, classerrors.ErrNotFound
		},
	}

	svc := newTestService(repo, &mockScheduleRepo{}, newMemLockManager())
	_, err := svc.Cancel(context.Background(), "65f0a1b2c3d4e5f6a7b8c9d1", testMemberID)

	assertCode(t, err, apperrors.CodeNotFound)
}

func TestAvailability(t *testing.T) {
	repo := &mockRegistrationRepo{
		CountActiveFn: func(ctx context.Context, scheduleID string, onDate time.Time) (int64, error) {
			return 7, nil
		},
	}
	schedules := &mockScheduleRepo{
		FindByIDFn: func(ctx context.Context, id string) (*model.ClassSchedule, error) {
			return activeSchedule(10), nil
		},
	}

	svc := newTestService(repo, schedules, newMemLockManager())
	availability, err := svc.Availability(context.Background(), testScheduleID, timeslot.Today())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if availability.Registered != 7 {
		t.Errorf("expected 7 registered, got %d", availability.Registered)
	}
	if availability.Remaining != 3 {
		t.Errorf("expected 3 remaining, got %d", availability.Remaining)
	}
	if !availability.Available {
		t.Error("expected schedule to be available")
	}
}

func TestGetByMember_StorageFailure(t *testing.T) {
	repo := &mockRegistrationRepo{
		FindByMemberFn: func(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error) {
			return nil, 0, errors.New("connection reset")
		},
	}

	svc := newTestService(repo, &mockScheduleRepo{}, newMemLockManager())
	_, _, err := svc.GetByMember(context.Background(), testMemberID, 10, 0)

	assertCode(t, err, apperrors.CodeStorage)
}
