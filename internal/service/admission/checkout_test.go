package admission

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(10, 5000)
	a1 := f.store.AddSeat(domain.Seat{EventID: eventID, Row: "A", Column: 1})
	f.join(t, 1)
	adm := f.admit(t)
	ctx := context.Background()

	res, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, SeatIDs: []int64{a1.ID}, AdmissionToken: adm.Token})
	require.NoError(t, err)

	paid, err := f.service.Complete(ctx, res.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationStatusPaid, paid.Status)
	assert.Equal(t, domain.ReservationStatusPaid, f.store.Reservation(res.ID).Status)
	assert.Equal(t, domain.SeatStatusSold, f.store.Seat(a1.ID).Status)
	assert.Equal(t, domain.TicketStatusSold, f.store.Tickets(res.ID)[0].Status)
	assert.Equal(t, domain.WaitlistStatusCompleted, f.entry(t, 1).Status)
	assert.Equal(t, 1, f.store.TicketType(tt.ID).QuantitySold)

	payments := f.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, res.ID, payments[0].ReservationID)
	assert.Equal(t, int64(5000), payments[0].AmountCents)
	assert.NotEmpty(t, payments[0].TransactionID)

	_, err = f.service.Complete(ctx, res.ID, 1)
	assert.ErrorIs(t, err, domain.ErrReservationNotActive)
}

func TestComplete_AfterLeaseEnds(t *testing.T) {
	f := newFixture(t, Config{})
	f.ticketType(10, 5000)
	f.join(t, 1)
	adm := f.admit(t)

	f.clock.Advance(DefaultLease)
	_, err := f.service.Complete(context.Background(), adm.Reservation.ID, 1)
	assert.ErrorIs(t, err, domain.ErrReservationNotActive)
	assert.Empty(t, f.store.Payments())
}

func TestComplete_OtherUser(t *testing.T) {
	f := newFixture(t, Config{})
	f.ticketType(10, 5000)
	f.join(t, 1)
	adm := f.admit(t)

	_, err := f.service.Complete(context.Background(), adm.Reservation.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.Complete(context.Background(), 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_ReleasesAndCascades(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	tt := f.ticketType(2, 5000)
	a1 := f.store.AddSeat(domain.Seat{EventID: eventID, Row: "A", Column: 1})
	f.join(t, 1, 2)
	adm := f.admit(t)
	ctx := context.Background()

	res, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, SeatIDs: []int64{a1.ID}, AdmissionToken: adm.Token})
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, res.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.SeatStatusAvailable, f.store.Seat(a1.ID).Status)
	assert.Equal(t, domain.TicketStatusCancelled, f.store.Tickets(res.ID)[0].Status)
	assert.Equal(t, domain.WaitlistStatusExpired, f.entry(t, 1).Status)

	// user 2 takes the freed unit
	next := f.entry(t, 2)
	assert.Equal(t, domain.WaitlistStatusAdmitted, next.Status)
	assert.Equal(t, 1, f.store.TicketType(tt.ID).QuantitySold)

	_, err = f.service.Cancel(ctx, res.ID, 1)
	assert.ErrorIs(t, err, domain.ErrReservationNotActive)
}

func TestLeaseConservation(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	ga := f.ticketType(10, 5000)
	vip := f.ticketType(4, 9000)
	seats := []int64{
		f.store.AddSeat(domain.Seat{EventID: eventID, Row: "B", Column: 1}).ID,
		f.store.AddSeat(domain.Seat{EventID: eventID, Row: "B", Column: 2}).ID,
	}
	f.join(t, 1)
	adm := f.admit(t)
	ctx := context.Background()

	_, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: vip.ID, SeatIDs: seats, AdmissionToken: adm.Token})
	require.NoError(t, err)

	err = f.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res, err := tx.Reservations().Lock(ctx, adm.Reservation.ID)
		if err != nil {
			return err
		}
		_, err = f.service.ReleaseTx(ctx, tx, res, domain.ReservationStatusExpired)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.TicketType(ga.ID).QuantitySold)
	assert.Equal(t, 0, f.store.TicketType(vip.ID).QuantitySold)
	for _, id := range seats {
		assert.Equal(t, domain.SeatStatusAvailable, f.store.Seat(id).Status)
	}
	assert.Equal(t, domain.ReservationStatusExpired, f.store.Reservation(adm.Reservation.ID).Status)
	assert.Equal(t, domain.WaitlistStatusExpired, f.entry(t, 1).Status)
}

func TestReleaseTx_LeavesOtherHoldsEntryAlone(t *testing.T) {
	f := newFixture(t, Config{})
	tt := f.ticketType(10, 5000)
	f.join(t, 1)
	f.admit(t)
	ctx := context.Background()

	direct, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, direct.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.WaitlistStatusAdmitted, f.entry(t, 1).Status)
	assert.Equal(t, 1, f.store.TicketType(tt.ID).QuantitySold)
}

func TestListAndGetReservations(t *testing.T) {
	f := newFixture(t, Config{})
	tt := f.ticketType(10, 5000)
	ctx := context.Background()

	first, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.service.Claim(ctx, ClaimInput{EventID: eventID, UserID: 1, TicketTypeID: tt.ID, Quantity: 2})
	require.NoError(t, err)

	list, err := f.service.ListReservations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty, err := f.service.ListReservations(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	details, err := f.service.GetReservation(ctx, first.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, details.Reservation.ID)
	assert.Empty(t, details.Tickets)

	_, err = f.service.GetReservation(ctx, first.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
