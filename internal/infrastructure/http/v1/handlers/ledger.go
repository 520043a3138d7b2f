package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/ledger"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles credit account and entry endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// CreateAccount opens a credit account.
// POST /api/v1/credit/accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	account := &ledger.CreditAccount{
		Name:     req.Name,
		Currency: req.Currency,
	}
	if req.ClientID != nil && *req.ClientID != "" {
		clientID, err := id.Parse(*req.ClientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid client id").
				WithDetail("field", "clientId"))
			return
		}
		account.ClientID = &clientID
	}

	if err := h.service.CreateAccount(c.Request.Context(), account); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, account.ID)
}

// GetAccount returns one credit account with its running balance.
// GET /api/v1/credit/accounts/:id
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	account, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, account)
}

// CreateEntry appends a manual adjustment entry to an account.
// POST /api/v1/credit/accounts/:id/entries
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry := &ledger.CreditEntry{
		AccountID: accountID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Concept:   req.Concept,
		DocType:   req.DocType,
		Reference: req.Reference,
	}
	if req.ValueDate != nil {
		entry.ValueDate = *req.ValueDate
	}

	if err := h.service.CreateEntry(c.Request.Context(), entry); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry.ID)
}

// ListEntries returns the entries of an account, newest first.
// GET /api/v1/credit/accounts/:id/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.ListEntries(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// GetEntry returns one credit entry.
// GET /api/v1/credit/entry/:id
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entry)
}

// UpdateEntry mutates entry metadata.
// PUT /api/v1/credit/entry/:id
func (h *LedgerHandler) UpdateEntry(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.UpdateEntry(c.Request.Context(), entryID, req.ToEntryUpdate())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entry)
}

// DeleteEntry reverses and removes a standalone manual adjustment.
// DELETE /api/v1/credit/entry/:id
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteEntry(c.Request.Context(), entryID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
