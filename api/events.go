package api

import (
	"net/http"

	"github.com/Domenick1991/ticketqueue/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service availability.AvailabilityUseCase
}

func NewEventHandler(service availability.AvailabilityUseCase) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) Register(router *gin.RouterGroup) {
	router.GET("/events/:event_id/ticket-types", h.ticketTypes)
	router.GET("/events/:event_id/seats", h.seats)
}

func (h *EventHandler) ticketTypes(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	types, err := h.service.TicketTypes(c.Request.Context(), eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]ticketTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, ticketTypeResponse{
			ID:            t.ID,
			Name:          t.Name,
			PriceCents:    t.PriceCents,
			QuantityTotal: t.QuantityTotal,
			QuantitySold:  t.QuantitySold,
			Available:     t.Available(),
			IsActive:      t.IsActive,
			SalesStartAt:  t.SalesStartAt,
			SalesEndAt:    t.SalesEndAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *EventHandler) seats(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	seats, err := h.service.Seats(c.Request.Context(), eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]seatResponse, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatResponse{
			ID:         s.ID,
			Label:      s.Label,
			Row:        s.Row,
			Column:     s.Column,
			Status:     string(s.Status),
			PriceCents: s.PriceCents,
		})
	}
	c.JSON(http.StatusOK, out)
}
