package resource

import (
	"net/http"

	"roombook/infras/otel"
	"roombook/internal/domains/resource/model"
	"roombook/internal/domains/resource/model/dto"
	"roombook/internal/domains/resource/service"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/validator"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Resource
	otel    otel.Otel
}

func New(service service.Resource, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/resources", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateResource)
		routerGroup.Get("/", handler.GetResources)
		routerGroup.Post("/availability", handler.CheckAvailability)
		routerGroup.Get("/{id}", handler.GetResourceByID)
		routerGroup.Patch("/{id}", handler.UpdateResource)
		routerGroup.Delete("/{id}", handler.DeleteResource)
	})
}

// CreateResource handles the creation of a new bookable resource.
// @Summary Create a new resource
// @Description Create a new resource with the provided details.
// @Tags Resource
// @Accept json
// @Produce json
// @Param request body dto.CreateResourceRequest true "Resource details"
// @Success 201 {object} response.Message "Resource created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources [post]
// @Security BearerAuth
func (handler *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateResource")
	defer scope.End()

	req := dto.CreateResourceRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create resource")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Resource created successfully by user " + user)

	response.WithMessage(w, http.StatusCreated, "Resource created successfully")
}

// GetResources retrieves all resources based on query parameters.
// @Summary Get all resources
// @Description Retrieve all resources with optional filtering and pagination.
// @Tags Resource
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param resource_type query string false "Filter by resource type"
// @Success 200 {object} response.Data[dto.ResourceResponse] "List of resources"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources [get]
func (handler *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResources")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldName,
				Operator: gDto.FilterOperatorLike,
				Value:    r.URL.Query().Get(model.FieldName),
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldResourceType,
				Operator: gDto.FilterOperatorLike,
				Value:    r.URL.Query().Get(model.FieldResourceType),
				Table:    model.TableName,
			},
		},
	}

	resources, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resources")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resources retrieved successfully")

	response.WithJSON(w, http.StatusOK, resources)
}

// CheckAvailability reports whether requested quantities fit the remaining
// capacity of each resource for a time window. The report is advisory.
// @Summary Check resource availability
// @Description Report remaining capacity for the requested resources and window.
// @Tags Resource
// @Accept json
// @Produce json
// @Param request body dto.CapacityRequest true "Requested resources and window"
// @Success 200 {object} response.Data[dto.CapacityResponse] "Capacity report"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/availability [post]
func (handler *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	req := dto.CapacityRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	report, err := handler.service.CheckAvailability(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check resource availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource availability checked successfully")

	response.WithJSON(w, http.StatusOK, report)
}

// GetResourceByID retrieves a resource by its ID.
// @Summary Get a resource by ID
// @Description Retrieve a resource by its unique identifier.
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Data[dto.ResourceResponse] "Resource details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [get]
func (handler *Handler) GetResourceByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResourceByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	resource, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resource by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource retrieved successfully")

	response.WithJSON(w, http.StatusOK, resource)
}

// UpdateResource updates an existing resource by its ID.
// @Summary Update a resource by ID
// @Description Update the details of an existing resource.
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param request body dto.UpdateResourceRequest true "Resource details"
// @Success 200 {object} response.Message "Resource updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateResource")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateResourceRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update resource")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Resource updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Resource updated successfully")
}

// DeleteResource deletes a resource by its ID.
// @Summary Delete a resource by ID
// @Description Delete a resource using its unique identifier.
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Message "Resource deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/resources/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteResource")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete resource")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Resource deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Resource deleted successfully")
}
