package model

// Registration statuses. A class registration is confirmed at creation and
// has a single terminal state.
const (
	RegistrationActive   = "active"
	RegistrationCanceled = "canceled"
)

// Session statuses. Confirmed and rejected are both terminal; there is no
// cancellation path for trainer sessions.
const (
	SessionPending   = "pending"
	SessionConfirmed = "confirmed"
	SessionRejected  = "rejected"
)

// SessionCountsTowardCapacity reports whether a session in the given status
// occupies one of the trainer's concurrent slots.
func SessionCountsTowardCapacity(status string) bool {
	return status == SessionPending || status == SessionConfirmed
}

// RegistrationCountsTowardCapacity reports whether a registration in the
// given status occupies a class seat.
func RegistrationCountsTowardCapacity(status string) bool {
	return status == RegistrationActive
}
