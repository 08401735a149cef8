package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	trainererrors "fitbook/internal/trainers/errors"
	"fitbook/internal/trainers/repository"
	"fitbook/internal/trainers/validator"
	"fitbook/pkg/config"
	mongodb "fitbook/pkg/db/mongo"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/events"
	"fitbook/pkg/model"
	"fitbook/pkg/sanitizer"
	"fitbook/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

type SessionService interface {
	Browse(ctx context.Context, trainerID string, date time.Time) ([]*model.OpenSlot, error)
	Request(ctx context.Context, req *validator.SessionRequest) (*model.SessionResult, error)
	Confirm(ctx context.Context, sessionID, trainerID string) (*model.Session, error)
	Reject(ctx context.Context, sessionID, trainerID, reason string) (*model.Session, error)
	GetByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Session, int64, error)
}

type sessionService struct {
	sessions       repository.SessionRepository
	availabilities repository.AvailabilityRepository
	locks          mongodb.LockManager
	validator      *validator.SessionValidator
	emitter        events.Emitter
	cfg            *config.Config
}

func NewSessionService(
	sessions repository.SessionRepository,
	availabilities repository.AvailabilityRepository,
	locks mongodb.LockManager,
	sessionValidator *validator.SessionValidator,
	emitter events.Emitter,
	cfg *config.Config,
) SessionService {
	return &sessionService{
		sessions:       sessions,
		availabilities: availabilities,
		locks:          locks,
		validator:      sessionValidator,
		emitter:        emitter,
		cfg:            cfg,
	}
}

// Request books a pending session with a trainer. The trainer's whole day is
// the lock scope: every check from window fit to concurrent load runs under
// that lock, so racing requests for the same trainer serialize.
func (s *sessionService) Request(ctx context.Context, req *validator.SessionRequest) (*model.SessionResult, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Session request validation failed", "error", err)
		return nil, apperrors.Validation("Session request validation failed", map[string]any{"error": err.Error()})
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, apperrors.InvalidInput("start_time must be RFC 3339")
	}
	start = start.UTC()

	if start.Before(time.Now().UTC()) {
		return nil, apperrors.InvalidInput("start_time cannot be in the past")
	}
	if req.DurationMinutes > s.cfg.MaxSessionDurationMin {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"duration_minutes must be at most %d", s.cfg.MaxSessionDurationMin))
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	date := timeslot.DateOf(start)

	lockID, err := s.acquireSlotLock(ctx, trainerDayLockKey(req.TrainerID, date))
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(lockID)

	var result *model.SessionResult
	err = s.sessions.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		window, err := s.matchWindow(sessCtx, req.TrainerID, date, start, end)
		if err != nil {
			return err
		}

		memberBusy, err := s.sessions.CountMemberOverlapping(sessCtx, req.MemberID, start, end)
		if err != nil {
			return apperrors.Storage("Failed to check member sessions", err)
		}
		if memberBusy > 0 {
			return apperrors.TimeConflict("Member already has a session in this time span")
		}

		load, err := s.sessions.CountOverlapping(sessCtx, req.TrainerID, start, end)
		if err != nil {
			return apperrors.Storage("Failed to count trainer sessions", err)
		}
		if load >= int64(window.MaxConcurrent) {
			return apperrors.SlotFull(fmt.Sprintf(
				"Trainer is fully booked in this span (%d/%d sessions)", load, window.MaxConcurrent))
		}

		session := &model.Session{
			MemberID:       req.MemberID,
			TrainerID:      req.TrainerID,
			AvailabilityID: window.ID,
			StartTime:      start,
			EndTime:        end,
			Status:         model.SessionPending,
		}
		if err := s.sessions.Create(sessCtx, session); err != nil {
			return apperrors.Storage("Failed to create session", err)
		}

		result = &model.SessionResult{
			Session:   session,
			Remaining: timeslot.Remaining(window.MaxConcurrent, int(load)+1),
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to request session",
			"member_id", req.MemberID,
			"trainer_id", req.TrainerID,
			"start_time", start,
			"error", err,
		)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeSessionRequested, events.ReservationEvent{
		ReservationID: result.Session.ID,
		MemberID:      req.MemberID,
		ResourceID:    req.TrainerID,
		Status:        model.SessionPending,
	})

	s.cfg.Log.Info("Session requested",
		"session_id", result.Session.ID,
		"member_id", req.MemberID,
		"trainer_id", req.TrainerID,
		"remaining", result.Remaining,
	)
	return result, nil
}

// Confirm moves a pending session to confirmed. Any other starting status is
// a transition error; confirmed and rejected are both terminal.
func (s *sessionService) Confirm(ctx context.Context, sessionID, trainerID string) (*model.Session, error) {
	session, err := s.decide(ctx, sessionID, trainerID, model.SessionConfirmed, "")
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeSessionConfirmed, events.ReservationEvent{
		ReservationID: session.ID,
		MemberID:      session.MemberID,
		ResourceID:    session.TrainerID,
		Status:        model.SessionConfirmed,
	})

	s.cfg.Log.Info("Session confirmed", "session_id", sessionID, "trainer_id", trainerID)
	return session, nil
}

// Reject moves a pending session to rejected, freeing the trainer's slot.
func (s *sessionService) Reject(ctx context.Context, sessionID, trainerID, reason string) (*model.Session, error) {
	session, err := s.decide(ctx, sessionID, trainerID, model.SessionRejected, sanitizer.SanitizeNote(reason))
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeSessionRejected, events.ReservationEvent{
		ReservationID: session.ID,
		MemberID:      session.MemberID,
		ResourceID:    session.TrainerID,
		Status:        model.SessionRejected,
	})

	s.cfg.Log.Info("Session rejected", "session_id", sessionID, "trainer_id", trainerID)
	return session, nil
}

func (s *sessionService) decide(ctx context.Context, sessionID, trainerID, newStatus, reason string) (*model.Session, error) {
	if err := s.validator.ValidateDecision(&validator.DecisionRequest{TrainerID: trainerID, Reason: reason}); err != nil {
		return nil, apperrors.Validation("Session decision validation failed", map[string]any{"error": err.Error()})
	}

	lockID, err := s.acquireSlotLock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(lockID)

	var decided *model.Session
	err = s.sessions.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		session, err := s.sessions.FindByID(sessCtx, sessionID)
		if err != nil {
			if errors.Is(err, trainererrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Session", sessionID)
			}
			if errors.Is(err, trainererrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid session ID format")
			}
			return apperrors.Storage("Failed to load session", err)
		}

		if session.TrainerID != trainerID {
			return apperrors.Unauthorized("Session belongs to a different trainer")
		}
		if session.Status != model.SessionPending {
			return apperrors.InvalidTransition(fmt.Sprintf(
				"Session is %s; only pending sessions can be decided", session.Status))
		}

		if err := s.sessions.UpdateStatus(sessCtx, sessionID, newStatus, reason); err != nil {
			return apperrors.Storage("Failed to update session", err)
		}

		session.Status = newStatus
		session.RejectReason = reason
		decided = session
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to decide session",
			"session_id", sessionID,
			"trainer_id", trainerID,
			"new_status", newStatus,
			"error", err,
		)
		return nil, err
	}

	return decided, nil
}

func (s *sessionService) GetByMember(ctx context.Context, memberID string, limit int, offset int64) ([]*model.Session, int64, error) {
	if memberID == "" {
		return nil, 0, apperrors.InvalidInput("Member ID cannot be empty")
	}

	sessions, total, err := s.sessions.FindByMember(ctx, memberID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list sessions", "member_id", memberID, "error", err)
		return nil, 0, apperrors.Storage("Failed to retrieve sessions", err)
	}

	return sessions, total, nil
}

// matchWindow finds the availability window that fully contains the requested
// span. Windows never compose: a span straddling two adjacent windows has no
// home and is refused.
func (s *sessionService) matchWindow(ctx context.Context, trainerID string, date time.Time, start, end time.Time) (*model.Availability, error) {
	weekday := timeslot.WeekdayOf(date)

	windows, err := s.availabilities.FindForDate(ctx, trainerID, date, weekday)
	if err != nil {
		return nil, apperrors.Storage("Failed to load trainer availability", err)
	}

	for _, window := range windows {
		windowStart, err := timeslot.At(date, window.StartTime)
		if err != nil {
			return nil, apperrors.Storage("Malformed availability window", err)
		}
		windowEnd, err := timeslot.At(date, window.EndTime)
		if err != nil {
			return nil, apperrors.Storage("Malformed availability window", err)
		}

		if timeslot.Contains(windowStart, windowEnd, start, end) {
			return window, nil
		}
	}

	return nil, apperrors.NoAvailability("Trainer has no availability covering the requested span")
}

func (s *sessionService) acquireSlotLock(ctx context.Context, key string) (string, error) {
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

func (s *sessionService) releaseSlotLock(lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.locks.Release(ctx, lockID); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
	}
}

func trainerDayLockKey(trainerID string, date time.Time) string {
	return "trainer_" + trainerID + "_" + date.Format(timeslot.DateLayout)
}

func sessionLockKey(sessionID string) string {
	return "session_" + sessionID
}
