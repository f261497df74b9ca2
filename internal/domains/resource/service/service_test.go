package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roombook/config"
	"roombook/infras/otel/mocks"
	resourceMocks "roombook/internal/domains/resource/mocks"
	"roombook/internal/domains/resource/model"
	"roombook/internal/domains/resource/model/dto"
	"roombook/internal/domains/resource/service"
	cacheMocks "roombook/shared/cache/mocks"
	"roombook/shared/constant"
	"roombook/shared/failure"
	"roombook/shared/interval"
	"roombook/shared/timezone"
)

func newService(ctrl *gomock.Controller) (service.Resource, *resourceMocks.MockResource, *cacheMocks.MockRedisCache) {
	mockRepo := resourceMocks.NewMockResource(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	return service.New(mockRepo, cfg, mockCache, mocks.NewOtel()), mockRepo, mockCache
}

func clock(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := interval.ParseClock(value)
	require.NoError(t, err)

	return parsed
}

func TestResourceService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockCache := newService(ctrl)
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
	}{
		{
			name: "successful creation",
			setupMock: func() {
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "repository error",
			setupMock: func() {
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
			err := svc.Create(ctx, dto.CreateResourceRequest{Name: "Projector", ResourceType: "equipment", TotalQuantity: 5})

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestResourceService_CheckAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newService(ctrl)

	ctx := context.Background()
	date := timezone.Now().AddDate(0, 0, 7).Format(constant.DateOnlyFormat)

	projectors := model.Resource{ID: "res-1", Name: "Projector", TotalQuantity: 5}

	request := func(quantity int) dto.CapacityRequest {
		return dto.CapacityRequest{
			BookingDate: date,
			StartTime:   "10:00",
			EndTime:     "12:00",
			Requests:    []dto.CapacityRequestItem{{ResourceID: "res-1", Quantity: quantity}},
		}
	}

	t.Run("overlapping reservations exhaust capacity", func(t *testing.T) {
		mockRepo.EXPECT().
			GetCommittedReservations(gomock.Any(), []string{"res-1"}, gomock.Any()).
			Return([]model.CommittedReservation{
				{ResourceID: "res-1", Quantity: 3, StartTime: clock(t, "09:00"), EndTime: clock(t, "11:00")},
			}, nil)
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(projectors, nil)

		res, err := svc.CheckAvailability(ctx, request(3))

		assert.NoError(t, err)
		assert.False(t, res.Available)
		require.Len(t, res.PerResource, 1)
		assert.Equal(t, 2, res.PerResource[0].Available)
		assert.False(t, res.PerResource[0].Sufficient)
	})

	t.Run("request fits the remaining quantity", func(t *testing.T) {
		mockRepo.EXPECT().
			GetCommittedReservations(gomock.Any(), []string{"res-1"}, gomock.Any()).
			Return([]model.CommittedReservation{
				{ResourceID: "res-1", Quantity: 3, StartTime: clock(t, "09:00"), EndTime: clock(t, "11:00")},
			}, nil)
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(projectors, nil)

		res, err := svc.CheckAvailability(ctx, request(2))

		assert.NoError(t, err)
		assert.True(t, res.Available)
		require.Len(t, res.PerResource, 1)
		assert.True(t, res.PerResource[0].Sufficient)
	})

	t.Run("non-overlapping reservations do not count", func(t *testing.T) {
		mockRepo.EXPECT().
			GetCommittedReservations(gomock.Any(), []string{"res-1"}, gomock.Any()).
			Return([]model.CommittedReservation{
				{ResourceID: "res-1", Quantity: 5, StartTime: clock(t, "07:00"), EndTime: clock(t, "10:00")},
			}, nil)
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(projectors, nil)

		res, err := svc.CheckAvailability(ctx, request(5))

		assert.NoError(t, err)
		assert.True(t, res.Available)
		require.Len(t, res.PerResource, 1)
		assert.Equal(t, 5, res.PerResource[0].Available)
	})

	t.Run("unknown resource", func(t *testing.T) {
		mockRepo.EXPECT().
			GetCommittedReservations(gomock.Any(), []string{"res-1"}, gomock.Any()).
			Return(nil, nil)
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Resource{}, nil)

		_, err := svc.CheckAvailability(ctx, request(1))

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("invalid window", func(t *testing.T) {
		req := request(1)
		req.StartTime = "12:00"
		req.EndTime = "10:00"

		_, err := svc.CheckAvailability(ctx, req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestResourceService_Reserve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newService(ctrl)

	ctx := context.Background()

	t.Run("successful reservation", func(t *testing.T) {
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Resource{ID: "res-1", TotalQuantity: 5}, nil)
		mockRepo.EXPECT().
			InsertReservation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, reservation model.Reservation) error {
				assert.Equal(t, "booking-1", reservation.BookingID)
				assert.Equal(t, "res-1", reservation.ResourceID)
				assert.Equal(t, 2, reservation.Quantity)

				return nil
			})

		err := svc.Reserve(ctx, "booking-1", "res-1", 2, "user-1")
		assert.NoError(t, err)
	})

	t.Run("quantity above total quantity", func(t *testing.T) {
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Resource{ID: "res-1", TotalQuantity: 5}, nil)

		err := svc.Reserve(ctx, "booking-1", "res-1", 10, "user-1")
		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("unknown resource", func(t *testing.T) {
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Resource{}, nil)

		err := svc.Reserve(ctx, "booking-1", "missing", 2, "user-1")
		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestResourceService_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newService(ctrl)

	mockRepo.EXPECT().
		DeleteReservationsForBooking(gomock.Any(), "booking-1").
		Return(nil)

	err := svc.Release(context.Background(), "booking-1")
	assert.NoError(t, err)
}
