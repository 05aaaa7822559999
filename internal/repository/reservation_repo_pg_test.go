package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewReservationRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewReservationRepository(pool))
	assert.NotNil(t, NewTicketRepository(pool))
	assert.NotNil(t, NewPaymentRepository(pool))
}

func TestNewUnitOfWork(t *testing.T) {
	uow := NewUnitOfWork(&pgxpool.Pool{}, 0)
	assert.NotNil(t, uow)
}
