package dto

import (
	"github.com/google/uuid"

	"roombook/internal/domains/resource/model"
	"roombook/shared"
	gDto "roombook/shared/dto"
	gModel "roombook/shared/model"
	"roombook/shared/timezone"
)

type CreateResourceRequest struct {
	Name          string `json:"name"           validate:"required,max=100"`
	ResourceType  string `json:"resource_type"  validate:"omitempty,max=50"`
	TotalQuantity int    `json:"total_quantity" validate:"required,min=1"`
}

func (c *CreateResourceRequest) ToModel(user string) model.Resource {
	return model.Resource{
		ID:            uuid.NewString(),
		Name:          c.Name,
		ResourceType:  c.ResourceType,
		TotalQuantity: c.TotalQuantity,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateResourceRequest struct {
	Name          string `db:"name"           json:"name"           validate:"omitempty,max=100"`
	ResourceType  string `db:"resource_type"  json:"resource_type"  validate:"omitempty,max=50"`
	TotalQuantity *int   `db:"total_quantity" json:"total_quantity" validate:"omitempty,min=1"`
}

type ResourceResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ResourceType  string `json:"resource_type"`
	TotalQuantity int    `json:"total_quantity"`
	gDto.Metadata
}

func (r *ResourceResponse) FromModel(mod model.Resource) {
	r.ID = mod.ID
	r.Name = mod.Name
	r.ResourceType = mod.ResourceType
	r.TotalQuantity = mod.TotalQuantity
	r.Metadata.FromModel(mod.Metadata)
}

type GetResourcesResponse struct {
	Resources []ResourceResponse `json:"resources"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetResourcesResponse) FromModels(models []model.Resource, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Resources = make([]ResourceResponse, len(models))
	for i, mod := range models {
		r.Resources[i].FromModel(mod)
	}
}

// CapacityRequest asks whether the requested quantities fit within each
// resource's remaining capacity for a time window.
type CapacityRequest struct {
	BookingDate string            `json:"booking_date" validate:"required"`
	StartTime   string            `json:"start_time"   validate:"required"`
	EndTime     string            `json:"end_time"     validate:"required"`
	Requests    []CapacityRequestItem `json:"requests" validate:"required,min=1,dive"`
}

type CapacityRequestItem struct {
	ResourceID string `json:"resource_id" validate:"required"`
	Quantity   int    `json:"quantity"    validate:"required,min=1"`
}

// CapacityReportItem is the advisory verdict for one requested resource.
type CapacityReportItem struct {
	ResourceID string `json:"resource_id"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

type CapacityResponse struct {
	Available   bool                 `json:"available"`
	PerResource []CapacityReportItem `json:"per_resource"`
}
