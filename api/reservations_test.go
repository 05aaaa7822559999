package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReservationHandler_create(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)

	until := time.Date(2026, 1, 1, 12, 10, 0, 0, time.UTC)
	input := admission.ClaimInput{
		EventID:        1,
		UserID:         7,
		TicketTypeID:   2,
		SeatIDs:        []int64{10, 11},
		AdmissionToken: "tok",
		TTLMinutes:     5,
	}
	res := &domain.Reservation{ID: 5, EventID: 1, UserID: 7, TicketTypeID: 2, Quantity: 2, Status: domain.ReservationStatusReserved, ReservedUntil: &until}
	mockService.On("Claim", mock.Anything, input).Return(res, nil)

	w := serve(router, http.MethodPost, "/v1/events/1/reservations",
		`{"ticket_type_id":2,"seat_ids":[10,11],"admission_token":"tok","ttl_minutes":5}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.ReservationID)
	require.NotNil(t, resp.ReservedUntil)
	assert.True(t, until.Equal(*resp.ReservedUntil))
	mockService.AssertExpectations(t)
}

func TestReservationHandler_createErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"sold out", domain.ErrInsufficientCapacity, http.StatusConflict},
		{"not on sale", domain.ErrNotOnSale, http.StatusConflict},
		{"seat taken", &domain.SeatsUnavailableError{SeatIDs: []int64{11}}, http.StatusConflict},
		{"bad token", domain.ErrInvalidToken, http.StatusForbidden},
		{"validation", &domain.ValidationError{Field: "quantity", Reason: "too many"}, http.StatusBadRequest},
		{"lock timeout", domain.ErrTransient, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockAdmissionUseCase{}
			router := newTestRouter(NewReservationHandler(mockService).Register, 7)
			mockService.On("Claim", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(router, http.MethodPost, "/v1/events/1/reservations", `{"ticket_type_id":2,"quantity":1}`)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestReservationHandler_seatConflictListsSeats(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)
	mockService.On("Claim", mock.Anything, mock.Anything).Return(nil, &domain.SeatsUnavailableError{SeatIDs: []int64{11, 12}})

	w := serve(router, http.MethodPost, "/v1/events/1/reservations", `{"ticket_type_id":2,"seat_ids":[11,12]}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"seat unavailable","seat_ids":[11,12]}`, w.Body.String())
}

func TestReservationHandler_purchase(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)

	input := admission.PurchaseInput{
		EventID: 1,
		UserID:  7,
		Items:   []admission.PurchaseItem{{TicketTypeID: 2, Quantity: 3}, {TicketTypeID: 4, Quantity: 1}},
	}
	mockService.On("Purchase", mock.Anything, input).Return([]domain.Reservation{
		{ID: 5, TicketTypeID: 2, Quantity: 3, Status: domain.ReservationStatusReserved},
		{ID: 6, TicketTypeID: 4, Quantity: 1, Status: domain.ReservationStatusReserved},
	}, nil)

	w := serve(router, http.MethodPost, "/v1/events/1/reservations",
		`{"items":[{"ticket_type_id":2,"quantity":3},{"ticket_type_id":4,"quantity":1}]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp []reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, int64(5), resp[0].ReservationID)
	assert.Equal(t, int64(6), resp[1].ReservationID)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_purchaseErrors(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)
	mockService.On("Purchase", mock.Anything, mock.Anything).Return(nil, domain.ErrInsufficientCapacity)

	w := serve(router, http.MethodPost, "/v1/events/1/reservations", `{"items":[{"ticket_type_id":2,"quantity":1}]}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(router, http.MethodPost, "/v1/events/1/reservations",
		`{"ticket_type_id":2,"items":[{"ticket_type_id":2,"quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "Purchase", 1)
}

func TestReservationHandler_complete(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)

	mockService.On("Complete", mock.Anything, int64(5), int64(7)).
		Return(&domain.Reservation{ID: 5, Status: domain.ReservationStatusPaid}, nil)
	mockService.On("Complete", mock.Anything, int64(6), int64(7)).
		Return(nil, domain.ErrReservationNotActive)

	w := serve(router, http.MethodPost, "/v1/reservations/5/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "paid", resp.Status)

	assert.Equal(t, http.StatusConflict, serve(router, http.MethodPost, "/v1/reservations/6/complete", "").Code)
}

func TestReservationHandler_cancel(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)

	mockService.On("Cancel", mock.Anything, int64(5), int64(7)).Return(nil, domain.ErrForbidden)

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/v1/reservations/5/cancel", "").Code)
}

func TestReservationHandler_listAndGet(t *testing.T) {
	mockService := &MockAdmissionUseCase{}
	router := newTestRouter(NewReservationHandler(mockService).Register, 7)

	seatID := int64(10)
	mockService.On("ListReservations", mock.Anything, int64(7)).
		Return([]domain.Reservation{{ID: 2}, {ID: 1}}, nil)
	mockService.On("GetReservation", mock.Anything, int64(2), int64(7)).
		Return(&admission.ReservationDetails{
			Reservation: domain.Reservation{ID: 2, Status: domain.ReservationStatusReserved},
			Tickets:     []domain.Ticket{{ID: 1, SeatID: &seatID, Status: domain.TicketStatusReserved, TicketNumber: "n-1"}},
		}, nil)
	mockService.On("GetReservation", mock.Anything, int64(3), int64(7)).Return(nil, domain.ErrNotFound)

	w := serve(router, http.MethodGet, "/v1/reservations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = serve(router, http.MethodGet, "/v1/reservations/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var details reservationDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.Equal(t, int64(2), details.ReservationID)
	require.Len(t, details.Tickets, 1)
	assert.Equal(t, "n-1", details.Tickets[0].TicketNumber)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/v1/reservations/3", "").Code)
}
