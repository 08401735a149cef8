package model

import "time"

// Availability is a trainer's declared bookable window, either on a specific
// calendar date or recurring on a weekday. MaxConcurrent is the number of
// sessions the trainer runs in parallel inside the window.
type Availability struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	TrainerID     string     `json:"trainer_id" bson:"trainer_id"`
	Date          *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Weekday       string     `json:"weekday,omitempty" bson:"weekday,omitempty"`
	StartTime     string     `json:"start_time" bson:"start_time"`
	EndTime       string     `json:"end_time" bson:"end_time"`
	MaxConcurrent int        `json:"max_concurrent" bson:"max_concurrent"`
	Active        bool       `json:"active" bson:"active"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

// Session is a member's claim on a trainer for a concrete time span. It is
// created pending and moves to confirmed or rejected by the trainer.
type Session struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID       string    `json:"member_id" bson:"member_id"`
	TrainerID      string    `json:"trainer_id" bson:"trainer_id"`
	AvailabilityID string    `json:"availability_id" bson:"availability_id"`
	StartTime      time.Time `json:"start_time" bson:"start_time"`
	EndTime        time.Time `json:"end_time" bson:"end_time"`
	Status         string    `json:"status" bson:"status"`
	RejectReason   string    `json:"reject_reason,omitempty" bson:"reject_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// SessionResult echoes the stored session plus the concurrent slots left in
// its window after it was counted in.
type SessionResult struct {
	Session   *Session `json:"session"`
	Remaining int      `json:"remaining"`
}

// OpenSlot is one browsable availability window with capacity left on a date.
type OpenSlot struct {
	AvailabilityID string    `json:"availability_id"`
	TrainerID      string    `json:"trainer_id"`
	Date           string    `json:"date"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	MaxConcurrent  int       `json:"max_concurrent"`
	Remaining      int       `json:"remaining"`
}
