package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	classerrors "fitbook/internal/classes/errors"
	"fitbook/internal/classes/repository"
	"fitbook/internal/classes/validator"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/events"
	"fitbook/pkg/model"
	"fitbook/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

type RegistrationService interface {
	Register(ctx context.Context, req *validator.RegisterRequest) (*model.RegistrationResult, error)
	Cancel(ctx context.Context, registrationID, memberID string) (*model.Registration, error)
	Availability(ctx context.Context, scheduleID string, date time.Time) (*model.ClassAvailability, error)
	GetByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error)
}

type registrationService struct {
	repo      repository.RegistrationRepository
	schedules repository.ScheduleRepository
	locks     mongodb.LockManager
	validator *validator.RegistrationValidator
	emitter   events.Emitter
	cfg       *config.Config
}

func NewRegistrationService(
	repo repository.RegistrationRepository,
	schedules repository.ScheduleRepository,
	locks mongodb.LockManager,
	registrationValidator *validator.RegistrationValidator,
	emitter events.Emitter,
	cfg *config.Config,
) RegistrationService {
	return &registrationService{
		repo:      repo,
		schedules: schedules,
		locks:     locks,
		validator: registrationValidator,
		emitter:   emitter,
		cfg:       cfg,
	}
}

// Register claims a seat on a class schedule. Every state check runs inside
// the transaction after the schedule's slot lock is held, so two requests
// racing for the last seat serialize and the loser observes the winner's
// registration.
func (s *registrationService) Register(ctx context.Context, req *validator.RegisterRequest) (*model.RegistrationResult, error) {
	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "error", err)
		return nil, apperrors.Validation("Registration validation failed", map[string]any{"error": err.Error()})
	}

	today := timeslot.Today()

	lockID, err := s.acquireSlotLock(ctx, scheduleLockKey(req.ScheduleID))
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(lockID)

	var result *model.RegistrationResult
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		schedule, err := s.loadSchedule(sessCtx, req.ScheduleID, today)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindActiveByMemberAndSchedule(sessCtx, req.MemberID, req.ScheduleID, today)
		if err != nil && !errors.Is(err, classerrors.ErrNotFound) {
			return apperrors.Storage("Failed to check existing registration", err)
		}
		if existing != nil {
			return apperrors.AlreadyRegistered("Member already holds an active registration for this class")
		}

		count, err := s.repo.CountActive(sessCtx, req.ScheduleID, today)
		if err != nil {
			return apperrors.Storage("Failed to count active registrations", err)
		}
		if count >= int64(schedule.Capacity) {
			return apperrors.CapacityExceeded(fmt.Sprintf("Class is full (%d/%d seats taken)", count, schedule.Capacity))
		}

		registration := &model.Registration{
			MemberID:   req.MemberID,
			ScheduleID: req.ScheduleID,
			StartDate:  today,
			Status:     model.RegistrationActive,
		}
		if err := s.repo.Create(sessCtx, registration); err != nil {
			return apperrors.Storage("Failed to create registration", err)
		}

		result = &model.RegistrationResult{
			Registration: registration,
			Remaining:    timeslot.Remaining(schedule.Capacity, int(count)+1),
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to register member",
			"member_id", req.MemberID,
			"schedule_id", req.ScheduleID,
			"error", err,
		)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeClassRegistered, events.ReservationEvent{
		ReservationID: result.Registration.ID,
		MemberID:      req.MemberID,
		ResourceID:    req.ScheduleID,
		Status:        model.RegistrationActive,
	})

	s.cfg.Log.Info("Member registered",
		"registration_id", result.Registration.ID,
		"member_id", req.MemberID,
		"schedule_id", req.ScheduleID,
		"remaining", result.Remaining,
	)
	return result, nil
}

// Cancel closes a registration. Re-cancellation fails loudly rather than
// succeeding silently, so every cancellation is attributable.
func (s *registrationService) Cancel(ctx context.Context, registrationID, memberID string) (*model.Registration, error) {
	if err := s.validator.ValidateCancel(&validator.CancelRequest{MemberID: memberID}); err != nil {
		return nil, apperrors.Validation("Cancellation validation failed", map[string]any{"error": err.Error()})
	}

	today := timeslot.Today()

	lockID, err := s.acquireSlotLock(ctx, registrationLockKey(registrationID))
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(lockID)

	var canceled *model.Registration
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		registration, err := s.repo.FindByID(sessCtx, registrationID)
		if err != nil {
			if errors.Is(err, classerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Registration", registrationID)
			}
			if errors.Is(err, classerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid registration ID format")
			}
			return apperrors.Storage("Failed to load registration", err)
		}

		if registration.MemberID != memberID {
			return apperrors.Unauthorized("Registration belongs to a different member")
		}
		if registration.Status == model.RegistrationCanceled {
			return apperrors.AlreadyCanceled("Registration is already canceled")
		}

		if err := s.repo.UpdateStatus(sessCtx, registrationID, model.RegistrationCanceled, &today); err != nil {
			return apperrors.Storage("Failed to cancel registration", err)
		}

		registration.Status = model.RegistrationCanceled
		registration.EndDate = &today
		canceled = registration
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel registration",
			"registration_id", registrationID,
			"member_id", memberID,
			"error", err,
		)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeClassCanceled, events.ReservationEvent{
		ReservationID: canceled.ID,
		MemberID:      memberID,
		ResourceID:    canceled.ScheduleID,
		Status:        model.RegistrationCanceled,
	})

	s.cfg.Log.Info("Registration canceled",
		"registration_id", registrationID,
		"member_id", memberID,
	)
	return canceled, nil
}

// Availability is the unlocked browse path. Its answer can be stale by the
// time a registration attempt follows; Register re-checks under the lock.
func (s *registrationService) Availability(ctx context.Context, scheduleID string, date time.Time) (*model.ClassAvailability, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, classerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class schedule", scheduleID)
		}
		if errors.Is(err, classerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		return nil, apperrors.Storage("Failed to load class schedule", err)
	}

	count, err := s.repo.CountActive(ctx, scheduleID, date)
	if err != nil {
		return nil, apperrors.Storage("Failed to count active registrations", err)
	}

	remaining := timeslot.Remaining(schedule.Capacity, int(count))
	return &model.ClassAvailability{
		ScheduleID: scheduleID,
		Date:       date.Format(timeslot.DateLayout),
		Capacity:   schedule.Capacity,
		Registered: int(count),
		Remaining:  remaining,
		Available:  remaining > 0,
	}, nil
}

func (s *registrationService) GetByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Registration, int64, error) {
	if memberID == "" {
		return nil, 0, apperrors.InvalidInput("Member ID cannot be empty")
	}

	registrations, total, err := s.repo.FindByMember(ctx, memberID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list registrations", "member_id", memberID, "error", err)
		return nil, 0, apperrors.Storage("Failed to retrieve registrations", err)
	}

	return registrations, total, nil
}

// loadSchedule re-fetches the schedule inside the held lock and applies the
// eligibility checks in order: existence, active flag, validity window.
func (s *registrationService) loadSchedule(ctx context.Context, scheduleID string, today time.Time) (*model.ClassSchedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, classerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class schedule", scheduleID)
		}
		if errors.Is(err, classerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		return nil, apperrors.Storage("Failed to load class schedule", err)
	}

	if !schedule.Active {
		return nil, apperrors.Inactive("Class schedule")
	}
	if schedule.ValidFrom != nil && today.Before(timeslot.DateOf(*schedule.ValidFrom)) {
		return nil, apperrors.NotYetAvailable("Class schedule")
	}
	if schedule.ValidUntil != nil && today.After(timeslot.DateOf(*schedule.ValidUntil)) {
		return nil, apperrors.Ended("Class schedule")
	}

	return schedule, nil
}

func (s *registrationService) acquireSlotLock(ctx context.Context, key string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.SlotLockWaitTimeout)
	defer cancel()

	err := mongodb.AcquireWait(waitCtx, s.locks, key, s.cfg.SlotLockTTL, s.cfg.SlotLockRetryInterval)
	if err != nil {
		if errors.Is(err, mongodb.ErrLockWaitExpired) {
			return "", apperrors.Timeout("Timed out waiting for the booking slot; please retry")
		}
		return "", apperrors.Storage("Failed to acquire booking lock", err)
	}
	return key, nil
}

// releaseSlotLock always runs, commit or rollback. A failed release is
// logged and left to the lock TTL; the caller's error must not be masked.
func (s *registrationService) releaseSlotLock(lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.locks.Release(ctx, lockID); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
	}
}

func scheduleLockKey(scheduleID string) string {
	return "class_schedule_" + scheduleID
}

func registrationLockKey(registrationID string) string {
	return "registration_" + registrationID
}
