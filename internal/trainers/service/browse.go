package service

import (
	"context"
	"time"

	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
	"fitbook/pkg/timeslot"
)

// Browse lists a trainer's windows with capacity left on a date, ordered by
// start time. It takes no lock: the answer is a snapshot and Request re-checks
// everything before committing.
func (s *sessionService) Browse(ctx context.Context, trainerID string, date time.Time) ([]*model.OpenSlot, error) {
	if trainerID == "" {
		return nil, apperrors.InvalidInput("Trainer ID cannot be empty")
	}

	weekday := timeslot.WeekdayOf(date)

	windows, err := s.availabilities.FindForDate(ctx, trainerID, date, weekday)
	if err != nil {
		return nil, apperrors.Storage("Failed to load trainer availability", err)
	}

	slots := make([]*model.OpenSlot, 0, len(windows))
	for _, window := range windows {
		windowStart, err := timeslot.At(date, window.StartTime)
		if err != nil {
			return nil, apperrors.Storage("Malformed availability window", err)
		}
		windowEnd, err := timeslot.At(date, window.EndTime)
		if err != nil {
			return nil, apperrors.Storage("Malformed availability window", err)
		}

		load, err := s.sessions.CountOverlapping(ctx, trainerID, windowStart, windowEnd)
		if err != nil {
			return nil, apperrors.Storage("Failed to count trainer sessions", err)
		}

		remaining := timeslot.Remaining(window.MaxConcurrent, int(load))
		if remaining == 0 {
			continue
		}

		slots = append(slots, &model.OpenSlot{
			AvailabilityID: window.ID,
			TrainerID:      trainerID,
			Date:           date.Format(timeslot.DateLayout),
			StartTime:      windowStart,
			EndTime:        windowEnd,
			MaxConcurrent:  window.MaxConcurrent,
			Remaining:      remaining,
		})
	}

	return slots, nil
}
