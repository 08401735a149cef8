package model

import "time"

// ClassSchedule is a fixed weekly class slot. Schedules are authored by the
// administration surface and read-only to the booking engine.
type ClassSchedule struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty"`
	Name       string     `json:"name" bson:"name"`
	Weekday    string     `json:"weekday" bson:"weekday"`
	StartTime  string     `json:"start_time" bson:"start_time"`
	EndTime    string     `json:"end_time" bson:"end_time"`
	Capacity   int        `json:"capacity" bson:"capacity"`
	ValidFrom  *time.Time `json:"valid_from,omitempty" bson:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty" bson:"valid_until,omitempty"`
	Active     bool       `json:"active" bson:"active"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// Registration is a member's claim on a class schedule, open-ended from its
// start date until canceled.
type Registration struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID   string     `json:"member_id" bson:"member_id"`
	ScheduleID string     `json:"schedule_id" bson:"schedule_id"`
	StartDate  time.Time  `json:"start_date" bson:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	Status     string     `json:"status" bson:"status"`
	Note       string     `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// RegistrationResult echoes the stored registration plus the seats left
// after it was counted in.
type RegistrationResult struct {
	Registration *Registration `json:"registration"`
	Remaining    int           `json:"remaining"`
}

// ClassAvailability is the read-path answer for a schedule on a date.
type ClassAvailability struct {
	ScheduleID string `json:"schedule_id"`
	Date       string `json:"date"`
	Capacity   int    `json:"capacity"`
	Registered int    `json:"registered"`
	Remaining  int    `json:"remaining"`
	Available  bool   `json:"available"`
}
