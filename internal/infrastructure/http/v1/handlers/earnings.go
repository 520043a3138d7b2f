package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/services"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// EarningsHandler serves booking earnings and agency fee defaults.
type EarningsHandler struct {
	*BaseHandler
	summary *services.SummaryService
}

// NewEarningsHandler creates a new earnings handler.
func NewEarningsHandler(base *BaseHandler, summary *services.SummaryService) *EarningsHandler {
	return &EarningsHandler{BaseHandler: base, summary: summary}
}

// Earnings returns the per-service commission breakdowns of a booking plus
// per-currency totals. Everything is derived on read.
// GET /api/v1/bookings/:id/earnings
func (h *EarningsHandler) Earnings(c *gin.Context) {
	bookingID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	summary, err := h.summary.Earnings(c.Request.Context(), bookingID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// GetFees returns the agency financial defaults.
// GET /api/v1/config/fees
func (h *EarningsHandler) GetFees(c *gin.Context) {
	config, err := h.summary.Fees(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, config)
}

// SaveFees updates the agency financial defaults.
// PUT /api/v1/config/fees
func (h *EarningsHandler) SaveFees(c *gin.Context) {
	var req dto.SaveFeesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	config := req.ToAgencyConfig()
	if err := h.summary.SaveFees(c.Request.Context(), config); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, config)
}
