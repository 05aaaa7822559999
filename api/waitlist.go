package api

import (
	"net/http"

	"github.com/Domenick1991/ticketqueue/internal/service/waitlist"
	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	service waitlist.WaitlistUseCase
}

type joinWaitlistRequest struct {
	Email string `json:"email"`
}

type joinWaitlistResponse struct {
	Entry    entryResponse `json:"entry"`
	Position int           `json:"position"`
}

type waitlistStatusResponse struct {
	Entry       entryResponse        `json:"entry"`
	Position    int                  `json:"position"`
	QueueSize   int                  `json:"queue_size"`
	Reservation *reservationResponse `json:"reservation,omitempty"`
}

func NewWaitlistHandler(service waitlist.WaitlistUseCase) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

// Register expects an authenticated group.
func (h *WaitlistHandler) Register(router *gin.RouterGroup) {
	router.POST("/events/:event_id/waitlist", h.join)
	router.GET("/events/:event_id/waitlist", h.status)
	router.DELETE("/events/:event_id/waitlist", h.leave)
}

func (h *WaitlistHandler) join(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req joinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.Join(c.Request.Context(), eventID, userID, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	position, err := h.service.Position(c.Request.Context(), entry)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, joinWaitlistResponse{
		Entry:    newEntryResponse(*entry, true),
		Position: position,
	})
}

func (h *WaitlistHandler) status(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.service.Status(c.Request.Context(), eventID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := waitlistStatusResponse{
		Entry:     newEntryResponse(view.Entry, true),
		Position:  view.Position,
		QueueSize: view.QueueSize,
	}
	if view.Reservation != nil {
		r := newReservationResponse(*view.Reservation)
		resp.Reservation = &r
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WaitlistHandler) leave(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Leave(c.Request.Context(), eventID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}
