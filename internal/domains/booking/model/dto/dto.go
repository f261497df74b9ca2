package dto

import (
	"time"

	"github.com/google/uuid"

	"roombook/internal/domains/booking/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/interval"
	gModel "roombook/shared/model"
	"roombook/shared/timezone"
)

// ResourceRequest asks for a quantity of a shared resource alongside a
// booking.
type ResourceRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
	Quantity   int    `json:"quantity"    validate:"required,min=1"`
}

type CreateBookingRequest struct {
	RoomID      string            `json:"room_id"      validate:"required"`
	BookingDate string            `json:"booking_date" validate:"required"`
	StartTime   string            `json:"start_time"   validate:"required"`
	EndTime     string            `json:"end_time"     validate:"required"`
	Purpose     string            `json:"purpose"      validate:"required,max=500"`
	Resources   []ResourceRequest `json:"resources"    validate:"omitempty,dive"`
}

// ToModel parses and normalizes the request into a pending booking owned by
// the requester. Time-logic validation (end after start, date not in the
// past) happens in the service so create and edit share one code path.
func (c *CreateBookingRequest) ToModel(requesterID, requesterName, requesterEmail string) (model.Booking, error) {
	bookingDate, err := interval.ParseDate(c.BookingDate)
	if err != nil {
		return model.Booking{}, err
	}

	startTime, err := interval.ParseClock(c.StartTime)
	if err != nil {
		return model.Booking{}, err
	}

	endTime, err := interval.ParseClock(c.EndTime)
	if err != nil {
		return model.Booking{}, err
	}

	return model.Booking{
		ID:             uuid.NewString(),
		RoomID:         c.RoomID,
		RequesterID:    requesterID,
		RequesterName:  requesterName,
		RequesterEmail: requesterEmail,
		BookingDate:    bookingDate,
		StartTime:      startTime,
		EndTime:        endTime,
		Purpose:        c.Purpose,
		Status:         model.StatusPending,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  requesterID,
			ModifiedBy: requesterID,
		},
	}, nil
}

type UpdateBookingRequest struct {
	BookingDate string `json:"booking_date" validate:"omitempty"`
	StartTime   string `json:"start_time"   validate:"omitempty"`
	EndTime     string `json:"end_time"     validate:"omitempty"`
	Purpose     string `db:"purpose"        json:"purpose" validate:"omitempty,max=500"`
}

// ResourceWarning reports an advisory shortfall for one requested resource.
type ResourceWarning struct {
	ResourceID string `json:"resource_id"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
}

type CreateBookingResponse struct {
	ID string `json:"id"`
	// Warnings lists requested resources that are oversubscribed for the
	// window. They do not block creation.
	Warnings []ResourceWarning `json:"warnings,omitempty"`
}

type BookingResponse struct {
	ID             string  `json:"id"`
	RoomID         string  `json:"room_id"`
	RequesterID    string  `json:"requester_id"`
	RequesterName  string  `json:"requester_name"`
	RequesterEmail string  `json:"requester_email"`
	BookingDate    string  `json:"booking_date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	DurationHours  float64 `json:"duration_hours"`
	Purpose        string  `json:"purpose"`
	Status         string  `json:"status"`
	RejectReason   *string `json:"reject_reason,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.RoomID = mod.RoomID
	r.RequesterID = mod.RequesterID
	r.RequesterName = mod.RequesterName
	r.RequesterEmail = mod.RequesterEmail
	r.BookingDate = mod.BookingDate.Format(constant.DateOnlyFormat)
	r.StartTime = mod.StartTime.Format(constant.ClockFormat)
	r.EndTime = mod.EndTime.Format(constant.ClockFormat)
	r.DurationHours = mod.DurationHours()
	r.Purpose = mod.Purpose
	r.Status = mod.Status
	r.RejectReason = mod.RejectReason
	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type AvailabilityRequest struct {
	RoomID           string `json:"room_id"      validate:"required"`
	BookingDate      string `json:"booking_date" validate:"required"`
	StartTime        string `json:"start_time"   validate:"required"`
	EndTime          string `json:"end_time"     validate:"required"`
	ExcludeBookingID string `json:"exclude_booking_id" validate:"omitempty"`
}

type AvailabilityResponse struct {
	Available bool              `json:"available"`
	Conflicts []BookingResponse `json:"conflicts,omitempty"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// DisplacedBooking identifies a previously approved booking rejected by an
// override cascade.
type DisplacedBooking struct {
	ID             string `json:"id"`
	RoomID         string `json:"room_id"`
	RequesterID    string `json:"requester_id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

// CascadeFailure records a displaced booking whose rejection could not be
// committed. The cascade is best-effort per item, failures surface here
// instead of rolling back the approval.
type CascadeFailure struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type ApproveBookingResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Displaced []DisplacedBooking `json:"displaced,omitempty"`
	Failures  []CascadeFailure   `json:"failures,omitempty"`
}

// ImportRow is one candidate booking in a bulk import batch. Rooms are
// referenced by name because batches come from spreadsheets, not the API.
type ImportRow struct {
	RoomName    string `json:"room_name"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Purpose     string `json:"purpose"`
}

type ImportRequest struct {
	Rows []ImportRow `json:"rows" validate:"required,min=1,dive"`
}

type ImportError struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

// ImportConflict carries the normalized candidate row together with the
// approved bookings it collides with, so an admin can decide per row.
type ImportConflict struct {
	RowIndex  int               `json:"row_index"`
	RoomID    string            `json:"room_id"`
	RoomName  string            `json:"room_name"`
	Candidate ImportRow         `json:"candidate"`
	Conflicts []BookingResponse `json:"conflicts"`
}

type ImportSummary struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Conflicts int `json:"conflicts"`
	Errors    int `json:"errors"`
}

type ImportResponse struct {
	Created   []BookingResponse `json:"created"`
	Conflicts []ImportConflict  `json:"conflicts"`
	Errors    []ImportError     `json:"errors"`
	Summary   ImportSummary     `json:"summary"`
}

const (
	ResolveActionOverride = "override"
	ResolveActionCancel   = "cancel"
)

// ResolveConflictRequest is the admin decision for one conflicted import row.
type ResolveConflictRequest struct {
	Action      string `json:"action"       validate:"required,oneof=override cancel"`
	RoomID      string `json:"room_id"      validate:"required"`
	BookingDate string `json:"booking_date" validate:"required"`
	StartTime   string `json:"start_time"   validate:"required"`
	EndTime     string `json:"end_time"     validate:"required"`
	Purpose     string `json:"purpose"      validate:"required,max=500"`
}

type ResolveConflictResponse struct {
	Action    string             `json:"action"`
	BookingID string             `json:"booking_id,omitempty"`
	Displaced []DisplacedBooking `json:"displaced,omitempty"`
	Failures  []CascadeFailure   `json:"failures,omitempty"`
}

// NewBookingFromImport builds an approved booking out of a normalized bulk
// import row. Bulk imported rows are administrator-asserted truth and skip
// the pending stage.
func NewBookingFromImport(roomID string, date, start, end time.Time, purpose, adminID, adminName, adminEmail string) model.Booking {
	return model.Booking{
		ID:             uuid.NewString(),
		RoomID:         roomID,
		RequesterID:    adminID,
		RequesterName:  adminName,
		RequesterEmail: adminEmail,
		BookingDate:    date,
		StartTime:      start,
		EndTime:        end,
		Purpose:        purpose,
		Status:         model.StatusApproved,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  adminID,
			ModifiedBy: adminID,
		},
	}
}
