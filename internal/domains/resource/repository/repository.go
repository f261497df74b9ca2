package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"roombook/infras/otel"
	"roombook/infras/postgres"
	bookingModel "roombook/internal/domains/booking/model"
	"roombook/internal/domains/resource/model"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/logger"
	gRepo "roombook/shared/repository"
)

type Resource interface {
	Insert(ctx context.Context, model model.Resource) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Resource, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Resource, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	InsertReservation(ctx context.Context, reservation model.Reservation) error
	DeleteReservationsForBooking(ctx context.Context, bookingID string) error
	GetCommittedReservations(ctx context.Context, resourceIDs []string, date time.Time) ([]model.CommittedReservation, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Resource]
	reservations gRepo.Repository[model.Reservation]
	db           *postgres.Connection
	otel         otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Resource {
	return &repositoryImpl{
		Repository:   gRepo.NewRepository[model.Resource](model.EntityName, model.TableName, model.FieldID, db, otel),
		reservations: gRepo.NewRepository[model.Reservation](model.ReservationEntityName, model.ReservationTableName, model.FieldReservationID, db, otel),
		db:           db,
		otel:         otel,
	}
}

func (repo *repositoryImpl) InsertReservation(ctx context.Context, reservation model.Reservation) error {
	return repo.reservations.Insert(ctx, reservation) //nolint:wrapcheck
}

func (repo *repositoryImpl) DeleteReservationsForBooking(ctx context.Context, bookingID string) error {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldBookingID,
				Operator: gDto.FilterOperatorEq,
				Value:    bookingID,
				Table:    model.ReservationTableName,
			},
		},
	}

	return repo.reservations.Delete(ctx, filter) //nolint:wrapcheck
}

const committedReservationsQuery = `SELECT br.resource_id, br.quantity, b.start_time, b.end_time
FROM booking_resources br
JOIN bookings b ON b.id = br.booking_id
WHERE b.status = ? AND b.booking_date = ? AND br.resource_id IN (?)`

// GetCommittedReservations returns every reservation whose parent booking is
// approved on the given date, with the parent's time window. Overlap
// filtering happens at the call site via the interval primitive.
func (repo *repositoryImpl) GetCommittedReservations(ctx context.Context, resourceIDs []string, date time.Time) ([]model.CommittedReservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".resource.GetCommittedReservations")
	defer scope.End()

	if len(resourceIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(committedReservationsQuery, bookingModel.StatusApproved, date, resourceIDs)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to expand reservation query: %w", err)
	}

	query = repo.db.Read.Rebind(query)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var reservations []model.CommittedReservation

	if err := repo.db.Read.SelectContext(ctx, &reservations, query, args...); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get committed reservations (%s): %w", model.ReservationEntityName, err)
	}

	return reservations, nil
}
