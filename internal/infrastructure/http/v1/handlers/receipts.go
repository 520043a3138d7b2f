package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/receipts"
)

// ReceiptsHandler handles receipt reads and deletion. Receipts are created
// by the collection flows, never directly through the API.
type ReceiptsHandler struct {
	*BaseHandler
	service *receipts.Service
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(base *BaseHandler, service *receipts.Service) *ReceiptsHandler {
	return &ReceiptsHandler{BaseHandler: base, service: service}
}

// Get returns one receipt.
// GET /api/v1/receipts/:id
func (h *ReceiptsHandler) Get(c *gin.Context) {
	receiptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.service.Get(c.Request.Context(), receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, receipt)
}

// ListByBooking returns the receipts issued against a booking.
// GET /api/v1/bookings/:id/receipts
func (h *ReceiptsHandler) ListByBooking(c *gin.Context) {
	bookingID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": list})
}

// Delete removes a receipt no client payment references.
// DELETE /api/v1/receipts/:id
func (h *ReceiptsHandler) Delete(c *gin.Context) {
	receiptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), receiptID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
