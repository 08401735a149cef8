package model

import "time"

// SlotLock is an advisory lock document. Acquisition is an insert against a
// unique _id; a duplicate key means another request holds the slot. ExpiresAt
// backs a TTL index so crashed holders cannot wedge a slot forever.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
