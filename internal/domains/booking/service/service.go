package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/internal/domains/booking/repository"
	resourceDto "roombook/internal/domains/resource/model/dto"
	resourceService "roombook/internal/domains/resource/service"
	roomModel "roombook/internal/domains/room/model"
	roomRepo "roombook/internal/domains/room/repository"
	userModel "roombook/internal/domains/user/model"
	userRepo "roombook/internal/domains/user/repository"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/interval"
	"roombook/shared/notification"
	"roombook/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) error
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (dto.ApproveBookingResponse, error)
	Reject(ctx context.Context, id string, req dto.RejectBookingRequest) error
	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	Import(ctx context.Context, req dto.ImportRequest) (dto.ImportResponse, error)
	ResolveConflict(ctx context.Context, req dto.ResolveConflictRequest) (dto.ResolveConflictResponse, error)
}

type serviceImpl struct {
	repo       repository.Booking
	roomRepo   roomRepo.Room
	userRepo   userRepo.User
	resources  resourceService.Resource
	dispatcher notification.Dispatcher
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

func New(
	repo repository.Booking,
	roomRepo roomRepo.Room,
	userRepo userRepo.User,
	resources resourceService.Resource,
	dispatcher notification.Dispatcher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:       repo,
		roomRepo:   roomRepo,
		userRepo:   userRepo,
		resources:  resources,
		dispatcher: dispatcher,
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}
}

// Create validates the requested window, rejects it outright when it
// overlaps an approved booking, and otherwise records a pending request.
// Resource shortfalls are returned as warnings, never as errors.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.CreateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	requesterID, requesterName, requesterEmail, err := s.requesterIdentity(ctx)
	if err != nil {
		return res, err
	}

	booking, err := req.ToModel(requesterID, requesterName, requesterEmail)
	if err != nil {
		return res, err
	}

	if err := s.validateWindow(booking.BookingDate, booking.StartTime, booking.EndTime); err != nil {
		return res, err
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	conflicts, err := s.overlappingApproved(ctx, booking.RoomID, booking.BookingDate, booking.StartTime, booking.EndTime, constant.Empty)
	if err != nil {
		return res, err
	}

	if len(conflicts) > 0 {
		return res, failure.Conflict("room is already booked for the requested window") // nolint:wrapcheck
	}

	warnings, err := s.resourceWarnings(ctx, req)
	if err != nil {
		return res, err
	}

	if err := s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	for _, item := range req.Resources {
		if err := s.resources.Reserve(ctx, booking.ID, item.ResourceID, item.Quantity, requesterID); err != nil {
			log.Error().Err(err).Msg("failed to reserve resource")

			return res, fmt.Errorf("failed to reserve resource: %w", err)
		}
	}

	s.invalidateBookingCaches(ctx, constant.Empty)

	res.ID = booking.ID
	res.Warnings = warnings

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(nil)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// Update lets the requester reshape their own booking while it is still
// pending. A changed window goes through the same availability gate as
// creation, excluding the booking itself from the conflict scan.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if !booking.IsOwnedBy(user) && role != constant.RoleAdmin {
		return failure.Forbidden("only the requester can edit this booking") // nolint:wrapcheck
	}

	if !booking.IsPending() {
		return failure.Conflict(fmt.Sprintf("only pending bookings can be edited, current status is %s", booking.Status)) // nolint:wrapcheck
	}

	bookingDate, startTime, endTime := booking.BookingDate, booking.StartTime, booking.EndTime

	if req.BookingDate != constant.Empty {
		if bookingDate, err = interval.ParseDate(req.BookingDate); err != nil {
			return err
		}
	}

	if req.StartTime != constant.Empty {
		if startTime, err = interval.ParseClock(req.StartTime); err != nil {
			return err
		}
	}

	if req.EndTime != constant.Empty {
		if endTime, err = interval.ParseClock(req.EndTime); err != nil {
			return err
		}
	}

	if err := s.validateWindow(bookingDate, startTime, endTime); err != nil {
		return err
	}

	conflicts, err := s.overlappingApproved(ctx, booking.RoomID, bookingDate, startTime, endTime, booking.ID)
	if err != nil {
		return err
	}

	if len(conflicts) > 0 {
		return failure.Conflict("room is already booked for the requested window") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	updatedFields[model.FieldBookingDate] = bookingDate
	updatedFields[model.FieldStartTime] = startTime
	updatedFields[model.FieldEndTime] = endTime

	if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidateBookingCaches(ctx, id)

	return nil
}

// Delete withdraws a pending booking and releases its resource
// reservations. Decided bookings stay on record.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if !booking.IsOwnedBy(user) && role != constant.RoleAdmin {
		return failure.Forbidden("only the requester can withdraw this booking") // nolint:wrapcheck
	}

	if !booking.IsPending() {
		return failure.Conflict(fmt.Sprintf("only pending bookings can be withdrawn, current status is %s", booking.Status)) // nolint:wrapcheck
	}

	if err := s.resources.Release(ctx, id); err != nil {
		log.Error().Err(err).Msg("failed to release resource reservations")

		return fmt.Errorf("failed to release resource reservations: %w", err)
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.invalidateBookingCaches(ctx, id)

	return nil
}

// Approve confirms a pending booking under a per-room-per-date advisory
// lock so two admins deciding at once cannot double-book a window. Any
// approved bookings overlapping the confirmed window are displaced in the
// same transaction, each rejection is attempted independently and failures
// surface in the response instead of undoing the approval.
func (s *serviceImpl) Approve(ctx context.Context, id string) (res dto.ApproveBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	adminID, adminName, _, err := s.requesterIdentity(ctx)
	if err != nil {
		return res, err
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if !model.CanTransition(booking.Status, model.StatusApproved) {
		return res, failure.Conflict(fmt.Sprintf("booking cannot move from %s to %s", booking.Status, model.StatusApproved)) // nolint:wrapcheck
	}

	var displaced []model.Booking
	var failures []dto.CascadeFailure

	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRoomDate(ctx, booking.RoomID, booking.BookingDate); err != nil {
			return err
		}

		approved, err := tx.GetApprovedForRoomDate(ctx, booking.RoomID, booking.BookingDate)
		if err != nil {
			return err
		}

		if err := tx.Update(ctx, map[string]any{
			model.FieldStatus:        model.StatusApproved,
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: adminID,
		}, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			return err
		}

		displaced, failures = displaceOverlapping(ctx, tx, approved, booking, adminID, displacementReason(adminName, booking))

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to approve booking")

		return res, fmt.Errorf("failed to approve booking: %w", err)
	}

	s.notifyApproval(ctx, booking, displaced, adminName)
	s.invalidateBookingCaches(ctx, id)

	res.ID = booking.ID
	res.Status = model.StatusApproved
	res.Displaced = toDisplaced(displaced)
	res.Failures = failures

	return res, nil
}

// Reject declines a booking. Pending bookings are declined directly and an
// approved booking can still be revoked, which frees its window.
func (s *serviceImpl) Reject(ctx context.Context, id string, req dto.RejectBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	adminID, _, _, err := s.requesterIdentity(ctx)
	if err != nil {
		return err
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if !model.CanTransition(booking.Status, model.StatusRejected) {
		return failure.Conflict(fmt.Sprintf("booking cannot move from %s to %s", booking.Status, model.StatusRejected)) // nolint:wrapcheck
	}

	reason := req.Reason
	if reason == constant.Empty {
		reason = "rejected by administrator"
	}

	if err := s.repo.Update(ctx, map[string]any{
		model.FieldStatus:        model.StatusRejected,
		model.FieldRejectReason:  reason,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: adminID,
	}, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to reject booking")

		return fmt.Errorf("failed to reject booking: %w", err)
	}

	s.dispatch(ctx, notification.Event{
		Type:           notification.EventBookingRejected,
		BookingID:      booking.ID,
		RoomID:         booking.RoomID,
		RecipientID:    booking.RequesterID,
		RecipientName:  booking.RequesterName,
		RecipientEmail: booking.RequesterEmail,
		BookingDate:    booking.BookingDate.Format(constant.DateOnlyFormat),
		StartTime:      booking.StartTime.Format(constant.ClockFormat),
		EndTime:        booking.EndTime.Format(constant.ClockFormat),
		Reason:         reason,
	})

	s.invalidateBookingCaches(ctx, id)

	return nil
}

// CheckAvailability answers whether a window is free of approved bookings.
// Pending requests never block a window.
func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	bookingDate, err := interval.ParseDate(req.BookingDate)
	if err != nil {
		return res, err
	}

	startTime, err := interval.ParseClock(req.StartTime)
	if err != nil {
		return res, err
	}

	endTime, err := interval.ParseClock(req.EndTime)
	if err != nil {
		return res, err
	}

	if !endTime.After(startTime) {
		return res, failure.BadRequestFromString("end time must be after start time") // nolint:wrapcheck
	}

	conflicts, err := s.overlappingApproved(ctx, req.RoomID, bookingDate, startTime, endTime, req.ExcludeBookingID)
	if err != nil {
		return res, err
	}

	res.Available = len(conflicts) == 0
	res.Conflicts = make([]dto.BookingResponse, len(conflicts))

	for i, conflict := range conflicts {
		res.Conflicts[i].FromModel(conflict)
	}

	return res, nil
}

// Import runs each row of a bulk batch through the same validation pipeline
// and partitions the batch into created, conflicted, and errored rows. A row
// never aborts the batch. Created rows are administrator-asserted schedule
// truth and enter directly as approved, which also makes them visible to
// conflict scans of the rows that follow them.
func (s *serviceImpl) Import(ctx context.Context, req dto.ImportRequest) (res dto.ImportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Import")
	defer scope.End()
	defer scope.TraceIfError(err)

	adminID, adminName, adminEmail, err := s.requesterIdentity(ctx)
	if err != nil {
		return res, err
	}

	res.Created = []dto.BookingResponse{}
	res.Conflicts = []dto.ImportConflict{}
	res.Errors = []dto.ImportError{}

	for i, row := range req.Rows {
		normalized, roomID, date, start, end, rowErr := s.normalizeImportRow(ctx, row)
		if rowErr != nil {
			res.Errors = append(res.Errors, dto.ImportError{RowIndex: i, Reason: rowErr.Error()})

			continue
		}

		conflicts, err := s.overlappingApproved(ctx, roomID, date, start, end, constant.Empty)
		if err != nil {
			return res, err
		}

		if len(conflicts) > 0 {
			conflict := dto.ImportConflict{
				RowIndex:  i,
				RoomID:    roomID,
				RoomName:  row.RoomName,
				Candidate: normalized,
				Conflicts: make([]dto.BookingResponse, len(conflicts)),
			}
			for j, c := range conflicts {
				conflict.Conflicts[j].FromModel(c)
			}

			res.Conflicts = append(res.Conflicts, conflict)

			continue
		}

		booking := dto.NewBookingFromImport(roomID, date, start, end, row.Purpose, adminID, adminName, adminEmail)

		if err := s.repo.Insert(ctx, booking); err != nil {
			log.Error().Err(err).Int("row", i).Msg("failed to insert imported booking")
			res.Errors = append(res.Errors, dto.ImportError{RowIndex: i, Reason: err.Error()})

			continue
		}

		var created dto.BookingResponse
		created.FromModel(booking)
		res.Created = append(res.Created, created)
	}

	res.Summary = dto.ImportSummary{
		Total:     len(req.Rows),
		Created:   len(res.Created),
		Conflicts: len(res.Conflicts),
		Errors:    len(res.Errors),
	}

	s.invalidateBookingCaches(ctx, constant.Empty)

	return res, nil
}

// ResolveConflict applies the admin decision for one conflicted import row.
// Cancel drops the row without touching the schedule. Override inserts the
// row as approved and displaces whatever it overlaps, under the same lock
// and cascade as a normal approval.
func (s *serviceImpl) ResolveConflict(ctx context.Context, req dto.ResolveConflictRequest) (res dto.ResolveConflictResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ResolveConflict")
	defer scope.End()
	defer scope.TraceIfError(err)

	res.Action = req.Action

	if req.Action == dto.ResolveActionCancel {
		log.Info().Str("roomID", req.RoomID).Msg("import conflict cancelled")

		return res, nil
	}

	adminID, adminName, adminEmail, err := s.requesterIdentity(ctx)
	if err != nil {
		return res, err
	}

	date, err := interval.ParseDate(req.BookingDate)
	if err != nil {
		return res, err
	}

	start, err := interval.ParseClock(req.StartTime)
	if err != nil {
		return res, err
	}

	end, err := interval.ParseClock(req.EndTime)
	if err != nil {
		return res, err
	}

	if err := s.validateWindow(date, start, end); err != nil {
		return res, err
	}

	booking := dto.NewBookingFromImport(req.RoomID, date, start, end, req.Purpose, adminID, adminName, adminEmail)

	var displaced []model.Booking
	var failures []dto.CascadeFailure

	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockRoomDate(ctx, booking.RoomID, booking.BookingDate); err != nil {
			return err
		}

		approved, err := tx.GetApprovedForRoomDate(ctx, booking.RoomID, booking.BookingDate)
		if err != nil {
			return err
		}

		if err := tx.Insert(ctx, booking); err != nil {
			return err
		}

		displaced, failures = displaceOverlapping(ctx, tx, approved, booking, adminID, displacementReason(adminName, booking))

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve import conflict")

		return res, fmt.Errorf("failed to resolve import conflict: %w", err)
	}

	s.notifyApproval(ctx, booking, displaced, adminName)
	s.invalidateBookingCaches(ctx, constant.Empty)

	res.BookingID = booking.ID
	res.Displaced = toDisplaced(displaced)
	res.Failures = failures

	return res, nil
}

func (s *serviceImpl) getBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

// validateWindow enforces the two time-logic rules shared by every path
// that writes a window: the interval must have positive length and the day
// must not be in the past.
func (s *serviceImpl) validateWindow(date, start, end time.Time) error {
	if !end.After(start) {
		return failure.BadRequestFromString("end time must be after start time") // nolint:wrapcheck
	}

	now := timezone.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if date.Before(today) {
		return failure.BadRequestFromString("booking date cannot be in the past") // nolint:wrapcheck
	}

	return nil
}

// overlappingApproved prefilters approved bookings by room and date in SQL,
// the overlap itself is decided here.
func (s *serviceImpl) overlappingApproved(ctx context.Context, roomID string, date, start, end time.Time, excludeID string) ([]model.Booking, error) {
	approved, err := s.repo.GetApprovedForRoomDate(ctx, roomID, date)
	if err != nil {
		log.Error().Err(err).Msg("failed to get approved bookings")

		return nil, fmt.Errorf("failed to get approved bookings: %w", err)
	}

	return overlapping(approved, start, end, excludeID), nil
}

func overlapping(bookings []model.Booking, start, end time.Time, excludeID string) []model.Booking {
	var conflicts []model.Booking

	for _, booking := range bookings {
		if booking.ID == excludeID {
			continue
		}

		if interval.Overlaps(start, end, booking.StartTime, booking.EndTime) {
			conflicts = append(conflicts, booking)
		}
	}

	return conflicts
}

// displaceOverlapping rejects every approved booking that overlaps the winning
// one. Each displacement runs in its own savepoint so a failed update does not
// abort the surrounding transaction and the approval still commits, with the
// failed bookings reported back to the caller.
func displaceOverlapping(ctx context.Context, tx repository.Tx, approved []model.Booking, booking model.Booking, adminID, reason string) ([]model.Booking, []dto.CascadeFailure) {
	var displaced []model.Booking
	var failures []dto.CascadeFailure

	for _, other := range overlapping(approved, booking.StartTime, booking.EndTime, booking.ID) {
		err := tx.Savepoint(ctx, func(ctx context.Context) error {
			return tx.Update(ctx, map[string]any{
				model.FieldStatus:        model.StatusRejected,
				model.FieldRejectReason:  reason,
				constant.FieldModifiedAt: timezone.Now(),
				constant.FieldModifiedBy: adminID,
			}, shared.FilterByID(other.ID, model.FieldID, model.TableName))
		})
		if err != nil {
			log.Error().Err(err).Str("bookingID", other.ID).Msg("failed to displace booking")
			failures = append(failures, dto.CascadeFailure{BookingID: other.ID, Reason: err.Error()})

			continue
		}

		displaced = append(displaced, other)
	}

	return displaced, failures
}

func (s *serviceImpl) resourceWarnings(ctx context.Context, req dto.CreateBookingRequest) ([]dto.ResourceWarning, error) {
	if len(req.Resources) == 0 {
		return nil, nil
	}

	capReq := resourceDto.CapacityRequest{
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Requests:    make([]resourceDto.CapacityRequestItem, len(req.Resources)),
	}
	for i, item := range req.Resources {
		capReq.Requests[i] = resourceDto.CapacityRequestItem{ResourceID: item.ResourceID, Quantity: item.Quantity}
	}

	report, err := s.resources.CheckAvailability(ctx, capReq)
	if err != nil {
		return nil, err
	}

	var warnings []dto.ResourceWarning

	for _, item := range report.PerResource {
		if !item.Sufficient {
			warnings = append(warnings, dto.ResourceWarning{
				ResourceID: item.ResourceID,
				Requested:  item.Requested,
				Available:  item.Available,
			})
		}
	}

	return warnings, nil
}

// normalizeImportRow validates one bulk import row and resolves its room
// name. The returned ImportRow carries the zero-padded times so conflicted
// rows round-trip cleanly into a resolve request.
func (s *serviceImpl) normalizeImportRow(ctx context.Context, row dto.ImportRow) (dto.ImportRow, string, time.Time, time.Time, time.Time, error) {
	var zero time.Time

	if row.RoomName == constant.Empty || row.BookingDate == constant.Empty ||
		row.StartTime == constant.Empty || row.EndTime == constant.Empty || row.Purpose == constant.Empty {
		return row, constant.Empty, zero, zero, zero, failure.BadRequestFromString("missing required fields") // nolint:wrapcheck
	}

	room, err := s.roomRepo.GetByName(ctx, row.RoomName)
	if err != nil {
		return row, constant.Empty, zero, zero, zero, err
	}

	if room.ID == constant.Empty {
		return row, constant.Empty, zero, zero, zero, failure.NotFound(fmt.Sprintf("unknown room: %s", row.RoomName)) // nolint:wrapcheck
	}

	date, err := interval.ParseDate(row.BookingDate)
	if err != nil {
		return row, constant.Empty, zero, zero, zero, err
	}

	row.StartTime = interval.Normalize(row.StartTime)
	row.EndTime = interval.Normalize(row.EndTime)

	start, err := interval.ParseClock(row.StartTime)
	if err != nil {
		return row, constant.Empty, zero, zero, zero, err
	}

	end, err := interval.ParseClock(row.EndTime)
	if err != nil {
		return row, constant.Empty, zero, zero, zero, err
	}

	if err := s.validateWindow(date, start, end); err != nil {
		return row, constant.Empty, zero, zero, zero, err
	}

	return row, room.ID, date, start, end, nil
}

// requesterIdentity resolves the acting user from the request context plus
// their stored profile. Bookings denormalize the requester's name and email
// so notifications survive later profile changes.
func (s *serviceImpl) requesterIdentity(ctx context.Context) (id, name, email string, err error) {
	id, _ = ctx.Value(constant.ContextKeyUserID).(string)
	email, _ = ctx.Value(constant.ContextKeyUserEmail).(string)

	if id == constant.Empty {
		return id, name, email, failure.Unauthorized("missing user identity") // nolint:wrapcheck
	}

	user, err := s.userRepo.Get(ctx, shared.FilterByID(id, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return id, name, email, fmt.Errorf("failed to get user: %w", err)
	}

	if user.FullName != nil {
		name = *user.FullName
	}

	if email == constant.Empty {
		email = user.Email
	}

	return id, name, email, nil
}

func displacementReason(adminName string, booking model.Booking) string {
	if adminName == constant.Empty {
		adminName = "an administrator"
	}

	return fmt.Sprintf(
		"displaced by an override approved by %s for %s %s-%s",
		adminName,
		booking.BookingDate.Format(constant.DateOnlyFormat),
		booking.StartTime.Format(constant.ClockFormat),
		booking.EndTime.Format(constant.ClockFormat),
	)
}

func toDisplaced(bookings []model.Booking) []dto.DisplacedBooking {
	displaced := make([]dto.DisplacedBooking, len(bookings))

	for i, booking := range bookings {
		displaced[i] = dto.DisplacedBooking{
			ID:             booking.ID,
			RoomID:         booking.RoomID,
			RequesterID:    booking.RequesterID,
			RequesterName:  booking.RequesterName,
			RequesterEmail: booking.RequesterEmail,
			StartTime:      booking.StartTime.Format(constant.ClockFormat),
			EndTime:        booking.EndTime.Format(constant.ClockFormat),
		}
	}

	return displaced
}

// notifyApproval fires the post-commit notifications for an approval or an
// override. Delivery failures are logged, the decision already stands.
func (s *serviceImpl) notifyApproval(ctx context.Context, booking model.Booking, displaced []model.Booking, adminName string) {
	s.dispatch(ctx, notification.Event{
		Type:           notification.EventBookingApproved,
		BookingID:      booking.ID,
		RoomID:         booking.RoomID,
		RecipientID:    booking.RequesterID,
		RecipientName:  booking.RequesterName,
		RecipientEmail: booking.RequesterEmail,
		BookingDate:    booking.BookingDate.Format(constant.DateOnlyFormat),
		StartTime:      booking.StartTime.Format(constant.ClockFormat),
		EndTime:        booking.EndTime.Format(constant.ClockFormat),
	})

	reason := displacementReason(adminName, booking)

	for _, other := range displaced {
		s.dispatch(ctx, notification.Event{
			Type:           notification.EventBookingDisplaced,
			BookingID:      other.ID,
			RoomID:         other.RoomID,
			RecipientID:    other.RequesterID,
			RecipientName:  other.RequesterName,
			RecipientEmail: other.RequesterEmail,
			BookingDate:    other.BookingDate.Format(constant.DateOnlyFormat),
			StartTime:      other.StartTime.Format(constant.ClockFormat),
			EndTime:        other.EndTime.Format(constant.ClockFormat),
			Reason:         reason,
		})
	}
}

func (s *serviceImpl) dispatch(ctx context.Context, event notification.Event) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		log.Error().Err(err).Str("bookingID", event.BookingID).Msg("failed to dispatch notification")
	}
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete booking from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}
