package admission

import (
	"context"
	"testing"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase_ReservesEveryItem(t *testing.T) {
	f := newFixture(t, Config{})
	ga := f.ticketType(10, 5000)
	vip := f.ticketType(4, 12000)

	out, err := f.service.Purchase(context.Background(), PurchaseInput{
		EventID: eventID,
		UserID:  1,
		Items: []PurchaseItem{
			{TicketTypeID: vip.ID, Quantity: 2},
			{TicketTypeID: ga.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, ga.ID, out[0].TicketTypeID)
	assert.Equal(t, int64(15000), out[0].TotalAmountCents)
	assert.Equal(t, vip.ID, out[1].TicketTypeID)
	assert.Equal(t, int64(24000), out[1].TotalAmountCents)
	for _, r := range out {
		assert.Equal(t, domain.ReservationStatusReserved, r.Status)
		require.NotNil(t, r.ReservedUntil)
		assert.Equal(t, testNow.Add(DefaultLease), *r.ReservedUntil)
	}

	assert.Equal(t, 3, f.store.TicketType(ga.ID).QuantitySold)
	assert.Equal(t, 2, f.store.TicketType(vip.ID).QuantitySold)
	assert.Len(t, f.store.Reservations(), 2)
}

func TestPurchase_OverCapacityItemRollsBackAll(t *testing.T) {
	f := newFixture(t, Config{})
	ga := f.ticketType(10, 5000)
	vip := f.ticketType(1, 12000)

	_, err := f.service.Purchase(context.Background(), PurchaseInput{
		EventID: eventID,
		UserID:  1,
		Items: []PurchaseItem{
			{TicketTypeID: ga.ID, Quantity: 2},
			{TicketTypeID: vip.ID, Quantity: 2},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	assert.Equal(t, 0, f.store.TicketType(ga.ID).QuantitySold)
	assert.Equal(t, 0, f.store.TicketType(vip.ID).QuantitySold)
	assert.Empty(t, f.store.Reservations())
}

func TestPurchase_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	ga := f.ticketType(10, 5000)

	testCases := []struct {
		name  string
		items []PurchaseItem
		field string
	}{
		{name: "no items", items: nil, field: "items"},
		{name: "zero quantity", items: []PurchaseItem{{TicketTypeID: ga.ID}}, field: "items.quantity"},
		{name: "over the per-item limit", items: []PurchaseItem{{TicketTypeID: ga.ID, Quantity: DefaultMaxPerClaim + 1}}, field: "items.quantity"},
		{name: "missing ticket type", items: []PurchaseItem{{Quantity: 1}}, field: "items.ticket_type_id"},
		{name: "duplicate ticket type", items: []PurchaseItem{{TicketTypeID: ga.ID, Quantity: 1}, {TicketTypeID: ga.ID, Quantity: 1}}, field: "items.ticket_type_id"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Purchase(context.Background(), PurchaseInput{EventID: eventID, UserID: 1, Items: tc.items})
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Equal(t, 0, f.store.TicketType(ga.ID).QuantitySold)
}

func TestPurchase_ForeignTicketTypeRollsBack(t *testing.T) {
	f := newFixture(t, Config{})
	ga := f.ticketType(10, 5000)
	other := f.store.AddTicketType(domain.TicketType{EventID: eventID + 1, Name: "GA", PriceCents: 100, QuantityTotal: 5, IsActive: true})

	_, err := f.service.Purchase(context.Background(), PurchaseInput{
		EventID: eventID,
		UserID:  1,
		Items:   []PurchaseItem{{TicketTypeID: ga.ID, Quantity: 1}, {TicketTypeID: other.ID, Quantity: 1}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, f.store.TicketType(ga.ID).QuantitySold)
	assert.Equal(t, 0, f.store.TicketType(other.ID).QuantitySold)
}

func TestPurchase_RequiresTokenMode(t *testing.T) {
	f := newFixture(t, Config{RequireToken: true})
	ga := f.ticketType(10, 5000)

	_, err := f.service.Purchase(context.Background(), PurchaseInput{
		EventID: eventID,
		UserID:  1,
		Items:   []PurchaseItem{{TicketTypeID: ga.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
