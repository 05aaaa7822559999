package domain

import (
	"crypto/subtle"
	"time"
)

type WaitlistStatus string

const (
	WaitlistStatusQueued    WaitlistStatus = "queued"
	WaitlistStatusAdmitted  WaitlistStatus = "admitted"
	WaitlistStatusExpired   WaitlistStatus = "expired"
	WaitlistStatusCompleted WaitlistStatus = "completed"
)

// WaitlistEntry is a user's place in an event queue. ID is assigned
// monotonically and is the FIFO order key.
type WaitlistEntry struct {
	ID             int64
	EventID        int64
	UserID         int64
	Status         WaitlistStatus
	AdmissionToken *string
	TTLUntil       *time.Time
	ReservationID  *int64
	Email          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TokenValid reports whether token proves admission at now: the entry must be
// admitted, carry the same token and now must be strictly before TTLUntil.
func (e *WaitlistEntry) TokenValid(token string, now time.Time) bool {
	if e.Status != WaitlistStatusAdmitted || e.AdmissionToken == nil || e.TTLUntil == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*e.AdmissionToken), []byte(token)) != 1 {
		return false
	}
	return now.Before(*e.TTLUntil)
}
