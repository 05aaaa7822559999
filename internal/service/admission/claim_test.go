package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) admit(t *testing.T) *Admission {
	t.Helper()
	adm, err := f.service.AdmitNext(context.Background(), eventID)
	require.NoError(t, err)
	return adm
}

func TestClaim_TokenWindow(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(10, 5000)
	f.join(t, 1)
	adm := f.admit(t)

	claim := ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, Quantity: 1}

	testCases := []struct {
		name    string
		token   string
		advance time.Duration
		wantErr error
	}{
		{name: "missing token", token: "", wantErr: domain.ErrInvalidToken},
		{name: "wrong token", token: "TOKEN999", wantErr: domain.ErrInvalidToken},
		{name: "exactly at ttl_until", token: adm.Token, advance: DefaultLease, wantErr: domain.ErrInvalidToken},
		{name: "after ttl_until", token: adm.Token, advance: DefaultLease + time.Second, wantErr: domain.ErrInvalidToken},
		{name: "just before ttl_until", token: adm.Token, advance: DefaultLease - time.Second},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f.clock.Set(testNow.Add(tc.advance))
			in := claim
			in.AdmissionToken = tc.token
			_, err := f.service.Claim(context.Background(), in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClaim_TokenOfAnotherUser(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(10, 5000)
	f.join(t, 1, 2)
	adm := f.admit(t)

	_, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 2, TicketTypeID: tt.ID, Quantity: 1, AdmissionToken: adm.Token,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestClaim_ConsumesHold(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	ga := f.ticketType(10, 5000)
	f.join(t, 1)
	adm := f.admit(t)
	require.Equal(t, 1, f.store.TicketType(ga.ID).QuantitySold)

	f.clock.Advance(time.Minute)
	res, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 1, TicketTypeID: ga.ID, Quantity: 3, AdmissionToken: adm.Token, TTLMinutes: 5,
	})
	require.NoError(t, err)

	until := testNow.Add(6 * time.Minute)
	assert.Equal(t, adm.Reservation.ID, res.ID)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, int64(15000), res.TotalAmountCents)
	assert.Equal(t, until, *res.ReservedUntil)
	assert.Equal(t, 3, f.store.TicketType(ga.ID).QuantitySold)
	assert.Len(t, f.store.Reservations(), 1)

	e := f.entry(t, 1)
	assert.Equal(t, until, *e.TTLUntil)
	assert.Equal(t, res.ID, *e.ReservationID)
}

func TestClaim_MovesHoldToAnotherType(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	ga := f.ticketType(10, 5000)
	vip := f.ticketType(5, 12000)
	f.join(t, 1)
	adm := f.admit(t)

	_, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 1, TicketTypeID: vip.ID, Quantity: 2, AdmissionToken: adm.Token,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.TicketType(ga.ID).QuantitySold)
	assert.Equal(t, 2, f.store.TicketType(vip.ID).QuantitySold)
}

func TestClaim_Seats(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(10, 5000)
	override := int64(8000)
	a1 := f.store.AddSeat(domain.Seat{EventID: eventID, Label: "A1", Row: "A", Column: 1})
	a2 := f.store.AddSeat(domain.Seat{EventID: eventID, Label: "A2", Row: "A", Column: 2, PriceCents: &override})
	f.join(t, 1)
	adm := f.admit(t)

	res, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 1, TicketTypeID: tt.ID, SeatIDs: []int64{a1.ID, a2.ID, a1.ID}, AdmissionToken: adm.Token,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, int64(13000), res.TotalAmountCents)
	assert.Equal(t, domain.SeatStatusReserved, f.store.Seat(a1.ID).Status)
	assert.Equal(t, domain.SeatStatusReserved, f.store.Seat(a2.ID).Status)

	tickets := f.store.Tickets(res.ID)
	require.Len(t, tickets, 2)
	for _, ticket := range tickets {
		assert.Equal(t, domain.TicketStatusReserved, ticket.Status)
		assert.NotEmpty(t, ticket.TicketNumber)
	}
	assert.Equal(t, int64(5000), tickets[0].PriceCents)
	assert.Equal(t, int64(8000), tickets[1].PriceCents)
}

func TestClaim_SeatConflictRollsBack(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(10, 5000)
	a1 := f.store.AddSeat(domain.Seat{EventID: eventID, Row: "A", Column: 1})
	taken := f.store.AddSeat(domain.Seat{EventID: eventID, Row: "A", Column: 2, Status: domain.SeatStatusReserved})
	f.join(t, 1)
	adm := f.admit(t)

	_, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 1, TicketTypeID: tt.ID, SeatIDs: []int64{a1.ID, taken.ID}, AdmissionToken: adm.Token,
	})

	var unavailable *domain.SeatsUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []int64{taken.ID}, unavailable.SeatIDs)

	assert.Equal(t, domain.SeatStatusAvailable, f.store.Seat(a1.ID).Status)
	assert.Equal(t, 1, f.store.TicketType(tt.ID).QuantitySold)
	hold := f.store.Reservation(adm.Reservation.ID)
	assert.Equal(t, domain.ReservationStatusReserved, hold.Status)
	assert.Equal(t, 1, hold.Quantity)
}

func TestClaim_OverCapacityKeepsHold(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(3, 5000)
	f.join(t, 1)
	adm := f.admit(t)

	_, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 1, TicketTypeID: tt.ID, Quantity: 4, AdmissionToken: adm.Token,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Equal(t, 1, f.store.TicketType(tt.ID).QuantitySold)
}

func TestClaim_DirectPurchaseWithoutToken(t *testing.T) {
	f := newFixture(t, Config{RequireToken: false})
	tt := f.ticketType(10, 5000)

	res, err := f.service.Claim(context.Background(), ClaimInput{
		EventID: eventID, UserID: 5, TicketTypeID: tt.ID, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusReserved, res.Status)
	assert.Equal(t, testNow.Add(DefaultLease), *res.ReservedUntil)
	assert.Equal(t, 2, f.store.TicketType(tt.ID).QuantitySold)
}

func TestClaim_TicketTypeOfAnotherEvent(t *testing.T) {
	f := newFixture(t, Config{})
	other := f.store.AddTicketType(domain.TicketType{EventID: 99, QuantityTotal: 10, IsActive: true})

	_, err := f.service.Claim(context.Background(), ClaimInput{EventID: eventID, UserID: 5, TicketTypeID: other.ID, Quantity: 1})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, f.store.TicketType(other.ID).QuantitySold)
}

func TestClaim_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	tt := f.ticketType(100, 5000)

	testCases := []struct {
		name  string
		input ClaimInput
		field string
	}{
		{name: "no ticket type", input: ClaimInput{Quantity: 1}, field: "ticket_type_id"},
		{name: "no quantity", input: ClaimInput{TicketTypeID: tt.ID}, field: "quantity"},
		{name: "too many", input: ClaimInput{TicketTypeID: tt.ID, Quantity: DefaultMaxPerClaim + 1}, field: "quantity"},
		{name: "ttl too short", input: ClaimInput{TicketTypeID: tt.ID, Quantity: 1, TTLMinutes: 1}, field: "ttl_minutes"},
		{name: "ttl too long", input: ClaimInput{TicketTypeID: tt.ID, Quantity: 1, TTLMinutes: 61}, field: "ttl_minutes"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.EventID = eventID
			tc.input.UserID = 1
			_, err := f.service.Claim(context.Background(), tc.input)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}
