//go:build wireinject
// +build wireinject

package di

import (
	"roombook/config"
	"roombook/infras/jwt"
	"roombook/infras/kafka"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/infras/redis"
	"roombook/infras/s3"
	"roombook/permissions"
	"roombook/shared/cache"
	"roombook/shared/notification"
	"roombook/transport/http"
	"roombook/transport/http/middleware"
	"roombook/transport/http/router"

	"github.com/google/wire"

	authService "roombook/internal/domains/auth/service"
	bookingRepository "roombook/internal/domains/booking/repository"
	bookingService "roombook/internal/domains/booking/service"
	resourceRepository "roombook/internal/domains/resource/repository"
	resourceService "roombook/internal/domains/resource/service"
	roomRepository "roombook/internal/domains/room/repository"
	roomService "roombook/internal/domains/room/service"
	userRepository "roombook/internal/domains/user/repository"
	userService "roombook/internal/domains/user/service"

	authHandler "roombook/internal/handlers/auth"
	bookingHandler "roombook/internal/handlers/booking"
	resourceHandler "roombook/internal/handlers/resource"
	roomHandler "roombook/internal/handlers/room"
	userHandler "roombook/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	notification.NewKafkaDispatcher,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var userDomain = wire.NewSet(
	userService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var resourceDomain = wire.NewSet(
	resourceRepository.New,
	resourceService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	roomDomain,
	resourceDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	roomHandler.New,
	resourceHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
