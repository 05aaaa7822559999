package domain

import "time"

type TicketType struct {
	ID            int64
	EventID       int64
	Name          string
	PriceCents    int64
	QuantityTotal int
	QuantitySold  int
	IsActive      bool
	SalesStartAt  *time.Time
	SalesEndAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *TicketType) Available() int {
	if t.QuantitySold >= t.QuantityTotal {
		return 0
	}
	return t.QuantityTotal - t.QuantitySold
}

// OnSale reports whether the type is active and now falls inside its sales
// window. A nil bound is open.
func (t *TicketType) OnSale(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.SalesStartAt != nil && now.Before(*t.SalesStartAt) {
		return false
	}
	if t.SalesEndAt != nil && !now.Before(*t.SalesEndAt) {
		return false
	}
	return true
}

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusSold      SeatStatus = "sold"
)

type Seat struct {
	ID         int64
	EventID    int64
	VenueID    *int64
	Label      string
	Row        string
	Column     int
	Status     SeatStatus
	PriceCents *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Price returns the seat override when present, else the fallback.
func (s *Seat) Price(fallback int64) int64 {
	if s.PriceCents != nil {
		return *s.PriceCents
	}
	return fallback
}
