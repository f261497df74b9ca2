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
	bookingMocks "roombook/internal/domains/booking/mocks"
	"roombook/internal/domains/booking/model"
	"roombook/internal/domains/booking/model/dto"
	"roombook/internal/domains/booking/repository"
	"roombook/internal/domains/booking/service"
	resourceDto "roombook/internal/domains/resource/model/dto"
	resourceSvcMocks "roombook/internal/domains/resource/service/mocks"
	roomMocks "roombook/internal/domains/room/mocks"
	roomModel "roombook/internal/domains/room/model"
	userMocks "roombook/internal/domains/user/mocks"
	userModel "roombook/internal/domains/user/model"
	cacheMocks "roombook/shared/cache/mocks"
	"roombook/shared/constant"
	"roombook/shared/failure"
	"roombook/shared/interval"
	notificationMocks "roombook/shared/notification/mocks"
	"roombook/shared/timezone"
)

type serviceMocks struct {
	repo       *bookingMocks.MockBooking
	tx         *bookingMocks.MockTx
	roomRepo   *roomMocks.MockRoom
	userRepo   *userMocks.MockUser
	resources  *resourceSvcMocks.MockResource
	dispatcher *notificationMocks.MockDispatcher
	cache      *cacheMocks.MockRedisCache
}

func newService(ctrl *gomock.Controller) (service.Booking, serviceMocks) {
	m := serviceMocks{
		repo:       bookingMocks.NewMockBooking(ctrl),
		tx:         bookingMocks.NewMockTx(ctrl),
		roomRepo:   roomMocks.NewMockRoom(ctrl),
		userRepo:   userMocks.NewMockUser(ctrl),
		resources:  resourceSvcMocks.NewMockResource(ctrl),
		dispatcher: notificationMocks.NewMockDispatcher(ctrl),
		cache:      cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(m.repo, m.roomRepo, m.userRepo, m.resources, m.dispatcher, cfg, m.cache, mocks.NewOtel())

	return svc, m
}

func requesterContext(id, email string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserEmail, email)
}

func clock(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := interval.ParseClock(value)
	require.NoError(t, err)

	return parsed
}

func futureDate() string {
	return timezone.Now().AddDate(0, 0, 7).Format(constant.DateOnlyFormat)
}

func allowCacheInvalidation(m serviceMocks) {
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func expectRequester(m serviceMocks, id, email, name string) {
	m.userRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(userModel.User{ID: id, Email: email, FullName: &name}, nil)
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("user-1", "user@campus.edu")
	date := futureDate()

	approvedOther := model.Booking{
		ID:        "other-1",
		RoomID:    "room-1",
		Status:    model.StatusApproved,
		StartTime: clock(t, "09:00"),
		EndTime:   clock(t, "11:00"),
	}

	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful creation",
			req: dto.CreateBookingRequest{
				RoomID:      "room-1",
				BookingDate: date,
				StartTime:   "09:00",
				EndTime:     "11:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{ID: "room-1", Name: "Room A"}, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return(nil, nil)
				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "overlapping approved booking is rejected",
			req: dto.CreateBookingRequest{
				RoomID:      "room-1",
				BookingDate: date,
				StartTime:   "10:00",
				EndTime:     "12:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{ID: "room-1", Name: "Room A"}, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return([]model.Booking{approvedOther}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "adjacent window does not conflict",
			req: dto.CreateBookingRequest{
				RoomID:      "room-1",
				BookingDate: date,
				StartTime:   "11:00",
				EndTime:     "12:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{ID: "room-1", Name: "Room A"}, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return([]model.Booking{approvedOther}, nil)
				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "unknown room",
			req: dto.CreateBookingRequest{
				RoomID:      "missing-room",
				BookingDate: date,
				StartTime:   "09:00",
				EndTime:     "11:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "end before start",
			req: dto.CreateBookingRequest{
				RoomID:      "room-1",
				BookingDate: date,
				StartTime:   "11:00",
				EndTime:     "09:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "past booking date",
			req: dto.CreateBookingRequest{
				RoomID:      "room-1",
				BookingDate: timezone.Now().AddDate(0, 0, -1).Format(constant.DateOnlyFormat),
				StartTime:   "09:00",
				EndTime:     "11:00",
				Purpose:     "study group",
			},
			setupMock: func() {
				expectRequester(m, "user-1", "user@campus.edu", "Test User")
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ID)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestBookingService_Create_ResourceWarnings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("user-1", "user@campus.edu")

	expectRequester(m, "user-1", "user@campus.edu", "Test User")
	m.roomRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(roomModel.Room{ID: "room-1"}, nil)
	m.repo.EXPECT().
		GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
		Return(nil, nil)
	m.resources.EXPECT().
		CheckAvailability(gomock.Any(), gomock.Any()).
		Return(resourceDto.CapacityResponse{
			Available: false,
			PerResource: []resourceDto.CapacityReportItem{
				{ResourceID: "res-1", Requested: 3, Available: 2, Sufficient: false},
			},
		}, nil)
	m.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(nil)
	m.resources.EXPECT().
		Reserve(gomock.Any(), gomock.Any(), "res-1", 3, "user-1").
		Return(nil)

	res, err := svc.Create(ctx, dto.CreateBookingRequest{
		RoomID:      "room-1",
		BookingDate: futureDate(),
		StartTime:   "09:00",
		EndTime:     "11:00",
		Purpose:     "workshop",
		Resources:   []dto.ResourceRequest{{ResourceID: "res-1", Quantity: 3}},
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "res-1", res.Warnings[0].ResourceID)
	assert.Equal(t, 3, res.Warnings[0].Requested)
	assert.Equal(t, 2, res.Warnings[0].Available)
}

func TestBookingService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	date := futureDate()
	parsedDate, err := interval.ParseDate(date)
	require.NoError(t, err)

	pending := model.Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		RequesterID: "user-1",
		Status:      model.StatusPending,
		BookingDate: parsedDate,
		StartTime:   clock(t, "09:00"),
		EndTime:     clock(t, "11:00"),
	}

	tests := []struct {
		name      string
		ctx       context.Context
		req       dto.UpdateBookingRequest
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "owner reshapes pending booking, self excluded from conflict scan",
			ctx:  requesterContext("user-1", "user@campus.edu"),
			req:  dto.UpdateBookingRequest{StartTime: "10:00", EndTime: "12:00"},
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pending, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return([]model.Booking{pending}, nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "non-owner is forbidden",
			ctx:  requesterContext("user-2", "other@campus.edu"),
			req:  dto.UpdateBookingRequest{Purpose: "changed"},
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pending, nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name: "admin can edit someone else's booking",
			ctx: context.WithValue(
				requesterContext("admin-1", "admin@campus.edu"),
				constant.ContextKeyUserRole, constant.RoleAdmin,
			),
			req: dto.UpdateBookingRequest{Purpose: "adjusted by admin"},
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pending, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return(nil, nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "approved booking cannot be edited",
			ctx:  requesterContext("user-1", "user@campus.edu"),
			req:  dto.UpdateBookingRequest{Purpose: "changed"},
			setupMock: func() {
				approved := pending
				approved.Status = model.StatusApproved
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "new window colliding with another approved booking",
			ctx:  requesterContext("user-1", "user@campus.edu"),
			req:  dto.UpdateBookingRequest{StartTime: "13:00", EndTime: "15:00"},
			setupMock: func() {
				other := model.Booking{
					ID:        "other-1",
					RoomID:    "room-1",
					Status:    model.StatusApproved,
					StartTime: clock(t, "14:00"),
					EndTime:   clock(t, "16:00"),
				}
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pending, nil)
				m.repo.EXPECT().
					GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
					Return([]model.Booking{other}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "booking not found",
			ctx:  requesterContext("user-1", "user@campus.edu"),
			req:  dto.UpdateBookingRequest{Purpose: "changed"},
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Update(tt.ctx, tt.req, "booking-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestBookingService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	pending := model.Booking{
		ID:          "booking-1",
		RequesterID: "user-1",
		Status:      model.StatusPending,
	}

	t.Run("owner withdraws pending booking and reservations are released", func(t *testing.T) {
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(pending, nil)
		m.resources.EXPECT().
			Release(gomock.Any(), "booking-1").
			Return(nil)
		m.repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		err := svc.Delete(requesterContext("user-1", "user@campus.edu"), "booking-1")
		assert.NoError(t, err)
	})

	t.Run("decided booking cannot be withdrawn", func(t *testing.T) {
		rejected := pending
		rejected.Status = model.StatusRejected
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(rejected, nil)

		err := svc.Delete(requesterContext("user-1", "user@campus.edu"), "booking-1")
		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(pending, nil)

		err := svc.Delete(requesterContext("user-2", "other@campus.edu"), "booking-1")
		assert.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})
}

func TestBookingService_Approve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("admin-1", "admin@campus.edu")

	subject := model.Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		RequesterID: "user-1",
		Status:      model.StatusPending,
		StartTime:   clock(t, "09:00"),
		EndTime:     clock(t, "12:00"),
	}

	overlappingOther := model.Booking{
		ID:          "other-1",
		RoomID:      "room-1",
		RequesterID: "user-2",
		Status:      model.StatusApproved,
		StartTime:   clock(t, "10:00"),
		EndTime:     clock(t, "11:00"),
	}

	disjointOther := model.Booking{
		ID:          "other-2",
		RoomID:      "room-1",
		RequesterID: "user-3",
		Status:      model.StatusApproved,
		StartTime:   clock(t, "14:00"),
		EndTime:     clock(t, "16:00"),
	}

	runTx := func(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
		return fn(ctx, m.tx)
	}
	runSavepoint := func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}

	t.Run("approval displaces only the overlapping booking", func(t *testing.T) {
		expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(subject, nil)
		m.repo.EXPECT().
			InTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(runTx)
		m.tx.EXPECT().
			LockRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return(nil)
		m.tx.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{overlappingOther, disjointOther}, nil)
		m.tx.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			Times(2)
		m.tx.EXPECT().
			Savepoint(gomock.Any(), gomock.Any()).
			DoAndReturn(runSavepoint)
		m.dispatcher.EXPECT().
			Dispatch(gomock.Any(), gomock.Any()).
			Return(nil).
			Times(2)

		res, err := svc.Approve(ctx, "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusApproved, res.Status)
		require.Len(t, res.Displaced, 1)
		assert.Equal(t, "other-1", res.Displaced[0].ID)
		assert.Empty(t, res.Failures)
	})

	t.Run("rejected booking cannot be approved", func(t *testing.T) {
		expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
		terminal := subject
		terminal.Status = model.StatusRejected
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(terminal, nil)

		_, err := svc.Approve(ctx, "booking-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("displacement failure surfaces without undoing the approval", func(t *testing.T) {
		expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(subject, nil)
		m.repo.EXPECT().
			InTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(runTx)
		m.tx.EXPECT().
			LockRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return(nil)
		m.tx.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{overlappingOther}, nil)
		m.tx.EXPECT().
			Savepoint(gomock.Any(), gomock.Any()).
			DoAndReturn(runSavepoint)

		gomock.InOrder(
			m.tx.EXPECT().
				Update(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil),
			m.tx.EXPECT().
				Update(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(errors.New("row locked")),
		)

		m.dispatcher.EXPECT().
			Dispatch(gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.Approve(ctx, "booking-1")

		assert.NoError(t, err)
		assert.Empty(t, res.Displaced)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, "other-1", res.Failures[0].BookingID)
	})

	t.Run("transaction error aborts the approval", func(t *testing.T) {
		expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(subject, nil)
		m.repo.EXPECT().
			InTransaction(gomock.Any(), gomock.Any()).
			Return(errors.New("deadlock detected"))

		_, err := svc.Approve(ctx, "booking-1")

		assert.Error(t, err)
	})
}

func TestBookingService_Reject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("admin-1", "admin@campus.edu")

	tests := []struct {
		name      string
		status    string
		setupMock func()
		wantErr   bool
	}{
		{
			name:   "pending booking is declined",
			status: model.StatusPending,
			setupMock: func() {
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				m.dispatcher.EXPECT().
					Dispatch(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "approved booking can be revoked",
			status: model.StatusApproved,
			setupMock: func() {
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				m.dispatcher.EXPECT().
					Dispatch(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:      "rejected booking is terminal",
			status:    model.StatusRejected,
			setupMock: func() {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
			m.repo.EXPECT().
				Get(gomock.Any(), gomock.Any()).
				Return(model.Booking{ID: "booking-1", Status: tt.status}, nil)

			tt.setupMock()

			err := svc.Reject(ctx, "booking-1", dto.RejectBookingRequest{Reason: "room maintenance"})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusConflict, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestBookingService_CheckAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)

	ctx := context.Background()
	date := futureDate()

	approved := model.Booking{
		ID:        "other-1",
		RoomID:    "room-1",
		Status:    model.StatusApproved,
		StartTime: clock(t, "09:00"),
		EndTime:   clock(t, "11:00"),
	}

	t.Run("free window", func(t *testing.T) {
		m.repo.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{approved}, nil)

		res, err := svc.CheckAvailability(ctx, dto.AvailabilityRequest{
			RoomID:      "room-1",
			BookingDate: date,
			StartTime:   "11:00",
			EndTime:     "13:00",
		})

		assert.NoError(t, err)
		assert.True(t, res.Available)
		assert.Empty(t, res.Conflicts)
	})

	t.Run("occupied window lists the conflicts", func(t *testing.T) {
		m.repo.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{approved}, nil)

		res, err := svc.CheckAvailability(ctx, dto.AvailabilityRequest{
			RoomID:      "room-1",
			BookingDate: date,
			StartTime:   "10:00",
			EndTime:     "12:00",
		})

		assert.NoError(t, err)
		assert.False(t, res.Available)
		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, "other-1", res.Conflicts[0].ID)
	})

	t.Run("excluded booking does not count against its own window", func(t *testing.T) {
		m.repo.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{approved}, nil)

		res, err := svc.CheckAvailability(ctx, dto.AvailabilityRequest{
			RoomID:           "room-1",
			BookingDate:      date,
			StartTime:        "10:00",
			EndTime:          "12:00",
			ExcludeBookingID: "other-1",
		})

		assert.NoError(t, err)
		assert.True(t, res.Available)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := svc.CheckAvailability(ctx, dto.AvailabilityRequest{
			RoomID:      "room-1",
			BookingDate: date,
			StartTime:   "12:00",
			EndTime:     "10:00",
		})

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestBookingService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("admin-1", "admin@campus.edu")
	date := futureDate()

	approved := model.Booking{
		ID:        "existing-1",
		RoomID:    "room-2",
		Status:    model.StatusApproved,
		StartTime: clock(t, "09:00"),
		EndTime:   clock(t, "11:00"),
	}

	expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")

	// Row 0: clean, with a single-digit hour that must normalize to 09:30.
	m.roomRepo.EXPECT().
		GetByName(gomock.Any(), "Room A").
		Return(roomModel.Room{ID: "room-1", Name: "Room A"}, nil)
	m.repo.EXPECT().
		GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
		Return(nil, nil)
	m.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(nil)

	// Row 1: collides with an existing approved booking.
	m.roomRepo.EXPECT().
		GetByName(gomock.Any(), "Room B").
		Return(roomModel.Room{ID: "room-2", Name: "Room B"}, nil)
	m.repo.EXPECT().
		GetApprovedForRoomDate(gomock.Any(), "room-2", gomock.Any()).
		Return([]model.Booking{approved}, nil)

	// Row 2: unknown room name.
	m.roomRepo.EXPECT().
		GetByName(gomock.Any(), "Room X").
		Return(roomModel.Room{}, nil)

	res, err := svc.Import(ctx, dto.ImportRequest{Rows: []dto.ImportRow{
		{RoomName: "Room A", BookingDate: date, StartTime: "9:30", EndTime: "11:00", Purpose: "lecture"},
		{RoomName: "Room B", BookingDate: date, StartTime: "10:00", EndTime: "12:00", Purpose: "seminar"},
		{RoomName: "Room X", BookingDate: date, StartTime: "09:00", EndTime: "10:00", Purpose: "exam"},
		{RoomName: "Room A", BookingDate: date, StartTime: "", EndTime: "10:00", Purpose: "exam"},
	}})

	assert.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "09:30", res.Created[0].StartTime)
	assert.Equal(t, model.StatusApproved, res.Created[0].Status)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, 1, res.Conflicts[0].RowIndex)
	assert.Equal(t, "room-2", res.Conflicts[0].RoomID)
	assert.Equal(t, "10:00", res.Conflicts[0].Candidate.StartTime)
	require.Len(t, res.Conflicts[0].Conflicts, 1)
	assert.Equal(t, "existing-1", res.Conflicts[0].Conflicts[0].ID)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].RowIndex)
	assert.Equal(t, 3, res.Errors[1].RowIndex)

	assert.Equal(t, dto.ImportSummary{Total: 4, Created: 1, Conflicts: 1, Errors: 2}, res.Summary)
}

func TestBookingService_ResolveConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)
	allowCacheInvalidation(m)

	ctx := requesterContext("admin-1", "admin@campus.edu")
	date := futureDate()

	runTx := func(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
		return fn(ctx, m.tx)
	}

	t.Run("cancel leaves the schedule untouched", func(t *testing.T) {
		res, err := svc.ResolveConflict(ctx, dto.ResolveConflictRequest{
			Action:      dto.ResolveActionCancel,
			RoomID:      "room-1",
			BookingDate: date,
			StartTime:   "09:00",
			EndTime:     "11:00",
			Purpose:     "lecture",
		})

		assert.NoError(t, err)
		assert.Equal(t, dto.ResolveActionCancel, res.Action)
		assert.Empty(t, res.BookingID)
	})

	t.Run("override inserts the row and displaces what it overlaps", func(t *testing.T) {
		displacedBooking := model.Booking{
			ID:          "existing-1",
			RoomID:      "room-1",
			RequesterID: "user-2",
			Status:      model.StatusApproved,
			StartTime:   clock(t, "10:00"),
			EndTime:     clock(t, "11:00"),
		}

		expectRequester(m, "admin-1", "admin@campus.edu", "Admin User")
		m.repo.EXPECT().
			InTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(runTx)
		m.tx.EXPECT().
			LockRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return(nil)
		m.tx.EXPECT().
			GetApprovedForRoomDate(gomock.Any(), "room-1", gomock.Any()).
			Return([]model.Booking{displacedBooking}, nil)
		m.tx.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)
		m.tx.EXPECT().
			Savepoint(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
				return fn(ctx)
			})
		m.tx.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)
		m.dispatcher.EXPECT().
			Dispatch(gomock.Any(), gomock.Any()).
			Return(nil).
			Times(2)

		res, err := svc.ResolveConflict(ctx, dto.ResolveConflictRequest{
			Action:      dto.ResolveActionOverride,
			RoomID:      "room-1",
			BookingDate: date,
			StartTime:   "09:00",
			EndTime:     "12:00",
			Purpose:     "accreditation visit",
		})

		assert.NoError(t, err)
		assert.Equal(t, dto.ResolveActionOverride, res.Action)
		assert.NotEmpty(t, res.BookingID)
		require.Len(t, res.Displaced, 1)
		assert.Equal(t, "existing-1", res.Displaced[0].ID)
		assert.Empty(t, res.Failures)
	})
}
