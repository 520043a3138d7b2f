package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/grupos"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// GruposHandler handles the bulk group operations.
type GruposHandler struct {
	*BaseHandler
	plans   *grupos.PlanService
	collect *grupos.CollectService
}

// NewGruposHandler creates a new grupos handler.
func NewGruposHandler(base *BaseHandler, plans *grupos.PlanService, collect *grupos.CollectService) *GruposHandler {
	return &GruposHandler{BaseHandler: base, plans: plans, collect: collect}
}

// GeneratePlans expands an installment plan over the selected passengers.
// POST /api/v1/groups/:id/bulk/payment-plans
func (h *GruposHandler) GeneratePlans(c *gin.Context) {
	groupID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.GeneratePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToGenerateInput(groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.plans.Generate(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Collect settles pending installments in bulk.
// POST /api/v1/groups/:id/bulk/collect
func (h *GruposHandler) Collect(c *gin.Context) {
	groupID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.CollectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToCollectInput(groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.collect.Collect(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
