package api

import (
	"net/http"

	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service admission.AdmissionUseCase
}

type purchaseItemRequest struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quantity     int   `json:"quantity"`
}

// createReservationRequest either claims one ticket type or, with items,
// purchases several at once.
type createReservationRequest struct {
	TicketTypeID   int64                 `json:"ticket_type_id"`
	SeatIDs        []int64               `json:"seat_ids"`
	Quantity       int                   `json:"quantity"`
	AdmissionToken string                `json:"admission_token"`
	TTLMinutes     int                   `json:"ttl_minutes"`
	Items          []purchaseItemRequest `json:"items"`
}

type reservationDetailsResponse struct {
	reservationResponse
	Tickets []ticketResponse `json:"tickets"`
}

func NewReservationHandler(service admission.AdmissionUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Register expects an authenticated group.
func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/events/:event_id/reservations", h.create)
	router.GET("/reservations", h.list)
	router.GET("/reservations/:id", h.get)
	router.POST("/reservations/:id/complete", h.complete)
	router.POST("/reservations/:id/cancel", h.cancel)
}

func (h *ReservationHandler) create(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) > 0 {
		h.purchase(c, eventID, userID, req)
		return
	}

	res, err := h.service.Claim(c.Request.Context(), admission.ClaimInput{
		EventID:        eventID,
		UserID:         userID,
		TicketTypeID:   req.TicketTypeID,
		SeatIDs:        req.SeatIDs,
		Quantity:       req.Quantity,
		AdmissionToken: req.AdmissionToken,
		TTLMinutes:     req.TTLMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newReservationResponse(*res))
}

func (h *ReservationHandler) purchase(c *gin.Context, eventID, userID int64, req createReservationRequest) {
	if req.TicketTypeID != 0 || len(req.SeatIDs) > 0 || req.Quantity != 0 || req.AdmissionToken != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items cannot be combined with ticket_type_id, seat_ids, quantity or admission_token"})
		return
	}

	items := make([]admission.PurchaseItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, admission.PurchaseItem{TicketTypeID: it.TicketTypeID, Quantity: it.Quantity})
	}
	list, err := h.service.Purchase(c.Request.Context(), admission.PurchaseInput{
		EventID:    eventID,
		UserID:     userID,
		Items:      items,
		TTLMinutes: req.TTLMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationResponse(r))
	}
	c.JSON(http.StatusCreated, out)
}

func (h *ReservationHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListReservations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	details, err := h.service.GetReservation(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservationDetailsResponse{
		reservationResponse: newReservationResponse(details.Reservation),
		Tickets:             newTicketResponses(details.Tickets),
	})
}

func (h *ReservationHandler) complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Complete(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReservationResponse(*res))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReservationResponse(*res))
}
