package model

import (
	"time"

	"roombook/shared/model"
)

const (
	TableName  = "resources"
	EntityName = "resource"

	FieldID            = "id"
	FieldName          = "name"
	FieldResourceType  = "resource_type"
	FieldTotalQuantity = "total_quantity"
)

const (
	ReservationTableName  = "booking_resources"
	ReservationEntityName = "resource_reservation"

	FieldReservationID = "id"
	FieldBookingID     = "booking_id"
	FieldResourceID    = "resource_id"
	FieldQuantity      = "quantity"
)

// Resource is a shared, finite-quantity item such as a projector pool.
type Resource struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	ResourceType  string `db:"resource_type"`
	TotalQuantity int    `db:"total_quantity"`
	model.Metadata
}

// Reservation joins a booking to a resource with a requested quantity. It
// consumes capacity only while the parent booking is approved.
type Reservation struct {
	ID         string `db:"id"`
	BookingID  string `db:"booking_id"`
	ResourceID string `db:"resource_id"`
	Quantity   int    `db:"quantity"`
	model.Metadata
}

// CommittedReservation is a reservation row joined with its approved parent
// booking's time window, the shape the capacity checker works on.
type CommittedReservation struct {
	ResourceID string    `db:"resource_id"`
	Quantity   int       `db:"quantity"`
	StartTime  time.Time `db:"start_time"`
	EndTime    time.Time `db:"end_time"`
}
