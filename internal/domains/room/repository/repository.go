package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/internal/domains/room/model"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/logger"
	gRepo "roombook/shared/repository"
)

type Room interface {
	Insert(ctx context.Context, model model.Room) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Room, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	GetByName(ctx context.Context, name string) (model.Room, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// GetByName looks a room up by name, case-insensitively. Bulk import batches
// reference rooms by name rather than by id. Returns the zero Room when no
// row matches, mirroring Get.
func (repo *repositoryImpl) GetByName(ctx context.Context, name string) (model.Room, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.GetByName")
	defer scope.End()

	query := `SELECT * FROM rooms WHERE LOWER(name) = LOWER(:name)`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var room model.Room

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return room, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	err = prepare.GetContext(ctx, &room, map[string]any{model.FieldName: strings.TrimSpace(name)})
	if errors.Is(err, sql.ErrNoRows) {
		return room, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return room, fmt.Errorf("failed to get room by name: %w", err)
	}

	return room, nil
}
