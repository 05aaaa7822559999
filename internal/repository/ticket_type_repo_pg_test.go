package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewTicketTypeRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTicketTypeRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewSeatRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSeatRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewWaitlistRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewWaitlistRepository(pool)
	assert.NotNil(t, repo)
}
