package model

import (
	"time"

	"roombook/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID             = "id"
	FieldRoomID         = "room_id"
	FieldRequesterID    = "requester_id"
	FieldRequesterName  = "requester_name"
	FieldRequesterEmail = "requester_email"
	FieldBookingDate    = "booking_date"
	FieldStartTime      = "start_time"
	FieldEndTime        = "end_time"
	FieldPurpose        = "purpose"
	FieldStatus         = "status"
	FieldRejectReason   = "reject_reason"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// transitions is the booking lifecycle: a pending booking can be decided
// either way, an approved booking can still be displaced by an admin
// override, a rejected booking is terminal.
var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {},
}

// CanTransition reports whether the lifecycle allows moving a booking from
// one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

type Booking struct {
	ID             string    `db:"id"`
	RoomID         string    `db:"room_id"`
	RequesterID    string    `db:"requester_id"`
	RequesterName  string    `db:"requester_name"`
	RequesterEmail string    `db:"requester_email"`
	BookingDate    time.Time `db:"booking_date"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	Purpose        string    `db:"purpose"`
	Status         string    `db:"status"`
	RejectReason   *string   `db:"reject_reason"`
	model.Metadata
}

// DurationHours is derived from the stored window, the pair is the source of
// truth and a separate duration column is never persisted.
func (b *Booking) DurationHours() float64 {
	return b.EndTime.Sub(b.StartTime).Hours()
}

// IsPending reports whether the booking is still awaiting a decision.
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// IsOwnedBy reports whether the given user created the booking request.
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.RequesterID == userID
}
