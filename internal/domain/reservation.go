package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusPaid      ReservationStatus = "paid"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Reservation is a provisional or final claim on ticket-type units and,
// for assigned seating, on the seats of its tickets.
type Reservation struct {
	ID               int64
	UserID           int64
	EventID          int64
	TicketTypeID     int64
	Quantity         int
	UnitPriceCents   int64
	TotalAmountCents int64
	Status           ReservationStatus
	ReservedUntil    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Active reports whether the reservation still holds inventory at now.
func (r *Reservation) Active(now time.Time) bool {
	return r.Status == ReservationStatusReserved && r.ReservedUntil != nil && now.Before(*r.ReservedUntil)
}

// Lapsed reports whether the sweeper should reclaim the reservation.
func (r *Reservation) Lapsed(now time.Time) bool {
	return r.Status == ReservationStatusReserved && r.ReservedUntil != nil && r.ReservedUntil.Before(now)
}

type TicketStatus string

const (
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusSold      TicketStatus = "sold"
	TicketStatusCancelled TicketStatus = "cancelled"
)

type Ticket struct {
	ID            int64
	ReservationID int64
	SeatID        *int64
	TicketTypeID  int64
	Status        TicketStatus
	PriceCents    int64
	TicketNumber  string
	CreatedAt     time.Time
}

type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "completed"

type Payment struct {
	ID            int64
	ReservationID int64
	AmountCents   int64
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}
