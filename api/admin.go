package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/Domenick1991/ticketqueue/internal/service/sweeper"
	"github.com/Domenick1991/ticketqueue/internal/service/waitlist"
	"github.com/gin-gonic/gin"
)

type Sweeper interface {
	Sweep(ctx context.Context) (sweeper.Result, error)
}

type AdminHandler struct {
	admission admission.AdmissionUseCase
	waitlist  waitlist.WaitlistUseCase
	sweeper   Sweeper
}

type admitRequest struct {
	Count      int `json:"count"`
	TTLSeconds int `json:"ttl_seconds"`
}

type admittedResponse struct {
	Entry          entryResponse       `json:"entry"`
	Reservation    reservationResponse `json:"reservation"`
	AdmissionToken string              `json:"admission_token"`
}

func NewAdminHandler(adm admission.AdmissionUseCase, wl waitlist.WaitlistUseCase, sw Sweeper) *AdminHandler {
	return &AdminHandler{admission: adm, waitlist: wl, sweeper: sw}
}

// Register expects a group restricted to admins.
func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/events/:event_id/admit", h.admit)
	router.GET("/events/:event_id/waitlist", h.listWaitlist)
	router.POST("/sweep", h.sweep)
}

func (h *AdminHandler) admit(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	var req admitRequest
	// an empty body admits the default batch
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	admitted, err := h.admission.AdmitBatch(c.Request.Context(), eventID, req.Count, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]admittedResponse, 0, len(admitted))
	for _, a := range admitted {
		out = append(out, admittedResponse{
			Entry:          newEntryResponse(a.Entry, false),
			Reservation:    newReservationResponse(a.Reservation),
			AdmissionToken: a.Token,
		})
	}
	c.JSON(http.StatusOK, gin.H{"admitted": out, "count": len(out)})
}

func (h *AdminHandler) listWaitlist(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	entries, err := h.waitlist.List(c.Request.Context(), eventID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryResponse(e, false))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) sweep(c *gin.Context) {
	res, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
