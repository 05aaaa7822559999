package api

import (
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
)

type entryResponse struct {
	ID             int64      `json:"id"`
	EventID        int64      `json:"event_id"`
	UserID         int64      `json:"user_id"`
	Status         string     `json:"status"`
	AdmissionToken string     `json:"admission_token,omitempty"`
	TTLUntil       *time.Time `json:"ttl_until,omitempty"`
	ReservationID  *int64     `json:"reservation_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// newEntryResponse includes the token only when withToken is set, which is
// the case for the entry's owner.
func newEntryResponse(e domain.WaitlistEntry, withToken bool) entryResponse {
	resp := entryResponse{
		ID:            e.ID,
		EventID:       e.EventID,
		UserID:        e.UserID,
		Status:        string(e.Status),
		TTLUntil:      e.TTLUntil,
		ReservationID: e.ReservationID,
		CreatedAt:     e.CreatedAt,
	}
	if withToken && e.AdmissionToken != nil && e.Status == domain.WaitlistStatusAdmitted {
		resp.AdmissionToken = *e.AdmissionToken
	}
	return resp
}

type reservationResponse struct {
	ReservationID    int64      `json:"reservation_id"`
	EventID          int64      `json:"event_id"`
	TicketTypeID     int64      `json:"ticket_type_id"`
	Quantity         int        `json:"quantity"`
	UnitPriceCents   int64      `json:"unit_price_cents"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	Status           string     `json:"status"`
	ReservedUntil    *time.Time `json:"reserved_until,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID:    r.ID,
		EventID:          r.EventID,
		TicketTypeID:     r.TicketTypeID,
		Quantity:         r.Quantity,
		UnitPriceCents:   r.UnitPriceCents,
		TotalAmountCents: r.TotalAmountCents,
		Status:           string(r.Status),
		ReservedUntil:    r.ReservedUntil,
		CreatedAt:        r.CreatedAt,
	}
}

type ticketResponse struct {
	ID           int64  `json:"id"`
	SeatID       *int64 `json:"seat_id,omitempty"`
	TicketTypeID int64  `json:"ticket_type_id"`
	Status       string `json:"status"`
	PriceCents   int64  `json:"price_cents"`
	TicketNumber string `json:"ticket_number"`
}

func newTicketResponses(tickets []domain.Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketResponse{
			ID:           t.ID,
			SeatID:       t.SeatID,
			TicketTypeID: t.TicketTypeID,
			Status:       string(t.Status),
			PriceCents:   t.PriceCents,
			TicketNumber: t.TicketNumber,
		})
	}
	return out
}

type ticketTypeResponse struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	PriceCents    int64      `json:"price_cents"`
	QuantityTotal int        `json:"quantity_total"`
	QuantitySold  int        `json:"quantity_sold"`
	Available     int        `json:"available"`
	IsActive      bool       `json:"is_active"`
	SalesStartAt  *time.Time `json:"sales_start_at,omitempty"`
	SalesEndAt    *time.Time `json:"sales_end_at,omitempty"`
}

type seatResponse struct {
	ID         int64  `json:"id"`
	Label      string `json:"label"`
	Row        string `json:"row"`
	Column     int    `json:"column"`
	Status     string `json:"status"`
	PriceCents *int64 `json:"price_cents,omitempty"`
}
