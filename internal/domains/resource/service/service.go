package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/internal/domains/resource/model"
	"roombook/internal/domains/resource/model/dto"
	"roombook/internal/domains/resource/repository"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"
	"roombook/shared/interval"
	gModel "roombook/shared/model"
	"roombook/shared/timezone"
)

const (
	cacheGetResource    = "resource:get"
	cacheGetAllResource = "resource:gets"
	cacheCountResource  = "resource:count"
)

type Resource interface {
	Create(ctx context.Context, req dto.CreateResourceRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetResourcesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.ResourceResponse, error)
	Update(ctx context.Context, req dto.UpdateResourceRequest, id string) error
	Delete(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, req dto.CapacityRequest) (dto.CapacityResponse, error)
	Reserve(ctx context.Context, bookingID, resourceID string, quantity int, userID string) error
	Release(ctx context.Context, bookingID string) error
}

type serviceImpl struct {
	repo  repository.Resource
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Resource, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Resource {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateResourceRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		log.Error().Err(err).Msg("failed to create resource")

		return fmt.Errorf("failed to create resource: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllResource)
		shared.InvalidateCaches(c, s.cache, cacheCountResource)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetResourcesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllResource, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for resources")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count resources")

		return res, fmt.Errorf("failed to count resources: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get resources")

		return res, fmt.Errorf("failed to get resources: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save resources to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountResource, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for resource count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count resources")

		return res, fmt.Errorf("failed to count resources: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save resource count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ResourceResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(nil)

	cacheKey := shared.BuildCacheKey(cacheGetResource, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for resource")

		return res, nil
	}

	resource, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get resource")

		return res, fmt.Errorf("failed to get resource: %w", err)
	}

	if resource.ID == constant.Empty {
		return res, failure.NotFound("resource not found") // nolint:wrapcheck
	}

	res.FromModel(resource)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save resource to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateResourceRequest, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(nil)

	if req == (dto.UpdateResourceRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if resource exists")

		return fmt.Errorf("failed to check if resource exists: %w", err)
	}

	if !exist {
		log.Error().Msg("resource not found")

		return failure.NotFound("resource not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update resource")

		return fmt.Errorf("failed to update resource: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetResource, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete resource from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllResource)
		shared.InvalidateCaches(c, s.cache, cacheCountResource)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(nil)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if resource exists")

		return fmt.Errorf("failed to check if resource exists: %w", err)
	}

	if !exist {
		log.Error().Msg("resource not found")

		return failure.NotFound("resource not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete resource")

		return fmt.Errorf("failed to delete resource: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetResource, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete resource from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllResource)
		shared.InvalidateCaches(c, s.cache, cacheCountResource)
	}()

	return nil
}

// CheckAvailability sums committed quantities across approved reservations
// whose parent bookings overlap the requested window and compares each sum
// against the resource's total quantity. The verdict is advisory: callers
// surface it as a warning, it does not gate booking creation.
func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.CapacityRequest) (res dto.CapacityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

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

	if !end.After(start) {
		return res, failure.BadRequestFromString("end time must be after start time") // nolint:wrapcheck
	}

	resourceIDs := make([]string, len(req.Requests))
	for i, item := range req.Requests {
		resourceIDs[i] = item.ResourceID
	}

	committed, err := s.repo.GetCommittedReservations(ctx, resourceIDs, date)
	if err != nil {
		log.Error().Err(err).Msg("failed to get committed reservations")

		return res, fmt.Errorf("failed to get committed reservations: %w", err)
	}

	reserved := make(map[string]int, len(resourceIDs))

	for _, reservation := range committed {
		if interval.Overlaps(start, end, reservation.StartTime, reservation.EndTime) {
			reserved[reservation.ResourceID] += reservation.Quantity
		}
	}

	res.Available = true
	res.PerResource = make([]dto.CapacityReportItem, 0, len(req.Requests))

	for _, item := range req.Requests {
		resource, err := s.repo.Get(ctx, shared.FilterByID(item.ResourceID, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get resource")

			return dto.CapacityResponse{}, fmt.Errorf("failed to get resource: %w", err)
		}

		if resource.ID == constant.Empty {
			return dto.CapacityResponse{}, failure.NotFound(fmt.Sprintf("resource not found: %s", item.ResourceID)) // nolint:wrapcheck
		}

		available := resource.TotalQuantity - reserved[item.ResourceID]
		sufficient := item.Quantity <= available

		if !sufficient {
			res.Available = false
		}

		res.PerResource = append(res.PerResource, dto.CapacityReportItem{
			ResourceID: item.ResourceID,
			Requested:  item.Quantity,
			Available:  available,
			Sufficient: sufficient,
		})
	}

	return res, nil
}

// Reserve attaches a resource quantity to a booking. The reservation only
// counts against capacity once the booking is approved.
func (s *serviceImpl) Reserve(ctx context.Context, bookingID, resourceID string, quantity int, userID string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reserve")
	defer scope.End()
	defer scope.TraceIfError(nil)

	resource, err := s.repo.Get(ctx, shared.FilterByID(resourceID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get resource")

		return fmt.Errorf("failed to get resource: %w", err)
	}

	if resource.ID == constant.Empty {
		return failure.NotFound(fmt.Sprintf("resource not found: %s", resourceID)) // nolint:wrapcheck
	}

	if quantity > resource.TotalQuantity {
		return failure.BadRequestFromString(fmt.Sprintf("requested quantity %d exceeds total quantity %d for resource %s", quantity, resource.TotalQuantity, resourceID)) // nolint:wrapcheck
	}

	reservation := model.Reservation{
		ID:         uuid.NewString(),
		BookingID:  bookingID,
		ResourceID: resourceID,
		Quantity:   quantity,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}

	if err := s.repo.InsertReservation(ctx, reservation); err != nil {
		log.Error().Err(err).Msg("failed to insert reservation")

		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	return nil
}

// Release frees every reservation attached to a booking.
func (s *serviceImpl) Release(ctx context.Context, bookingID string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Release")
	defer scope.End()
	defer scope.TraceIfError(nil)

	if err := s.repo.DeleteReservationsForBooking(ctx, bookingID); err != nil {
		log.Error().Err(err).Msg("failed to delete reservations")

		return fmt.Errorf("failed to delete reservations: %w", err)
	}

	return nil
}
