package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/booking/model"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/logger"
	gRepo "roombook/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	GetApprovedForRoomDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error)
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the slice of booking persistence available inside a transaction. The
// override cascade runs against it so the approval and the displacements
// commit together.
type Tx interface {
	// LockRoomDate serializes concurrent check-then-act sequences for one
	// room and date behind a Postgres advisory lock held until commit.
	LockRoomDate(ctx context.Context, roomID string, date time.Time) error
	Insert(ctx context.Context, model model.Booking) error
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	GetApprovedForRoomDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error)
	// Savepoint runs fn inside a Postgres savepoint. A failed statement
	// aborts the whole transaction, so rolling back to the savepoint keeps
	// the transaction usable for the statements that follow.
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

const approvedForRoomDateQuery = `SELECT * FROM bookings
WHERE room_id = :room_id AND booking_date = :booking_date AND status = :status`

func (repo *repositoryImpl) approvedForRoomDate(ctx context.Context, q sqlx.ExtContext, roomID string, date time.Time) ([]model.Booking, error) {
	rows, err := sqlx.NamedQueryContext(ctx, q, approvedForRoomDateQuery, map[string]any{
		model.FieldRoomID:      roomID,
		model.FieldBookingDate: date,
		model.FieldStatus:      model.StatusApproved,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to get approved bookings (%s): %w", model.EntityName, err)
	}
	defer rows.Close()

	var bookings []model.Booking

	for rows.Next() {
		var booking model.Booking
		if err := rows.StructScan(&booking); err != nil {
			logger.ErrorWithStack(err)

			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}

		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (repo *repositoryImpl) GetApprovedForRoomDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.GetApprovedForRoomDate")
	defer scope.End()

	return repo.approvedForRoomDate(ctx, repo.db.Read, roomID, date)
}

func (repo *repositoryImpl) InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.InTransaction")
	defer scope.End()

	sqltx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to begin transaction (%s): %w", model.EntityName, err)
	}

	if err := fn(ctx, &txImpl{repo: repo, sqltx: sqltx}); err != nil {
		if rbErr := sqltx.Rollback(); rbErr != nil {
			logger.ErrorWithStack(rbErr)
		}

		return err
	}

	if err := sqltx.Commit(); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to commit transaction (%s): %w", model.EntityName, err)
	}

	return nil
}

type txImpl struct {
	repo       *repositoryImpl
	sqltx      *sqlx.Tx
	savepoints int
}

func (tx *txImpl) LockRoomDate(ctx context.Context, roomID string, date time.Time) error {
	// hashtext keys the advisory lock on room+date so unrelated rooms and
	// days never contend. Released automatically at commit/rollback.
	query := `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`

	if _, err := tx.sqltx.ExecContext(ctx, query, roomID, date.Format(constant.DateOnlyFormat)); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to acquire room/date lock (%s): %w", model.EntityName, err)
	}

	return nil
}

func (tx *txImpl) Insert(ctx context.Context, mod model.Booking) error {
	return tx.repo.InsertTx(ctx, tx.sqltx, mod) //nolint:wrapcheck
}

func (tx *txImpl) Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error {
	return tx.repo.UpdateTx(ctx, tx.sqltx, req, filter) //nolint:wrapcheck
}

func (tx *txImpl) GetApprovedForRoomDate(ctx context.Context, roomID string, date time.Time) ([]model.Booking, error) {
	return tx.repo.approvedForRoomDate(ctx, tx.sqltx, roomID, date)
}

func (tx *txImpl) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.savepoints++
	name := fmt.Sprintf("sp_%d", tx.savepoints)

	if _, err := tx.sqltx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to create savepoint (%s): %w", model.EntityName, err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.sqltx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.ErrorWithStack(rbErr)

			return fmt.Errorf("failed to roll back to savepoint (%s): %w", model.EntityName, rbErr)
		}

		return err
	}

	if _, err := tx.sqltx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to release savepoint (%s): %w", model.EntityName, err)
	}

	return nil
}
