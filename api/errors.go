package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/middleware"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 503 on lock timeouts and deadlocks.
const retryAfterSeconds = 1

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var seats *domain.SeatsUnavailableError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": verr.Field})
	case errors.As(err, &seats):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrSeatUnavailable.Error(), "seat_ids": seats.SeatIDs})
	case errors.Is(err, domain.ErrNotOnSale):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrNotOnSale.Error()})
	case errors.Is(err, domain.ErrInsufficientCapacity),
		errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrAlreadyQueued),
		errors.Is(err, domain.ErrAlreadyAdmitted),
		errors.Is(err, domain.ErrNothingToAdmit),
		errors.Is(err, domain.ErrReservationNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotInQueue),
		errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTransient):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
	default:
		log.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int64, bool) {
	id, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}
