package api

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/middleware"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/Domenick1991/ticketqueue/internal/service/sweeper"
	"github.com/Domenick1991/ticketqueue/internal/service/waitlist"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockWaitlistUseCase struct {
	mock.Mock
}

func (m *MockWaitlistUseCase) Join(ctx context.Context, eventID, userID int64, email string) (*domain.WaitlistEntry, error) {
	args := m.Called(ctx, eventID, userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaitlistEntry), args.Error(1)
}

func (m *MockWaitlistUseCase) Position(ctx context.Context, entry *domain.WaitlistEntry) (int, error) {
	args := m.Called(ctx, entry)
	return args.Int(0), args.Error(1)
}

func (m *MockWaitlistUseCase) Leave(ctx context.Context, eventID, userID int64) error {
	return m.Called(ctx, eventID, userID).Error(0)
}

func (m *MockWaitlistUseCase) Status(ctx context.Context, eventID, userID int64) (*waitlist.StatusView, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*waitlist.StatusView), args.Error(1)
}

func (m *MockWaitlistUseCase) List(ctx context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error) {
	args := m.Called(ctx, eventID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WaitlistEntry), args.Error(1)
}

type MockAdmissionUseCase struct {
	mock.Mock
}

func (m *MockAdmissionUseCase) AdmitNext(ctx context.Context, eventID int64) (*admission.Admission, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Admission), args.Error(1)
}

func (m *MockAdmissionUseCase) AdmitBatch(ctx context.Context, eventID int64, count int, ttl time.Duration) ([]admission.Admission, error) {
	args := m.Called(ctx, eventID, count, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]admission.Admission), args.Error(1)
}

func (m *MockAdmissionUseCase) Claim(ctx context.Context, input admission.ClaimInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockAdmissionUseCase) Purchase(ctx context.Context, input admission.PurchaseInput) ([]domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockAdmissionUseCase) Complete(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockAdmissionUseCase) Cancel(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockAdmissionUseCase) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockAdmissionUseCase) GetReservation(ctx context.Context, reservationID, userID int64) (*admission.ReservationDetails, error) {
	args := m.Called(ctx, reservationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.ReservationDetails), args.Error(1)
}

type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) TicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketType), args.Error(1)
}

func (m *MockAvailabilityUseCase) Seats(ctx context.Context, eventID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Sweep(ctx context.Context) (sweeper.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(sweeper.Result), args.Error(1)
}

// asUser stands in for JWTAuth in handler tests.
func asUser(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetUser(c, userID, role)
		c.Next()
	}
}

func newTestRouter(register func(*gin.RouterGroup), userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/v1", asUser(userID, ""))
	register(group)
	return r
}
