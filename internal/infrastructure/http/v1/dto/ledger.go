package dto

import (
	"time"

	"backoffice/internal/core/types"
	"backoffice/internal/domain/ledger"
)

// CreateAccountRequest for opening a credit account.
type CreateAccountRequest struct {
	Name     string  `json:"name" binding:"required"`
	Currency string  `json:"currency"`
	ClientID *string `json:"clientId"`
}

// CreateEntryRequest for a manual credit adjustment. Document links are set
// only by the system flows that own them, never through this request.
type CreateEntryRequest struct {
	Amount    types.Money `json:"amount" binding:"required"`
	Currency  string      `json:"currency"`
	Concept   string      `json:"concept" binding:"required"`
	ValueDate *time.Time  `json:"valueDate"`
	DocType   string      `json:"docType"`
	Reference string      `json:"reference"`
}

// UpdateEntryRequest mutates entry metadata. Amount and currency are
// immutable through the API.
type UpdateEntryRequest struct {
	Concept   *string    `json:"concept"`
	ValueDate *time.Time `json:"valueDate"`
	DocType   *string    `json:"docType"`
	Reference *string    `json:"reference"`
}

// ToEntryUpdate converts to the domain update.
func (r *UpdateEntryRequest) ToEntryUpdate() ledger.EntryUpdate {
	return ledger.EntryUpdate{
		Concept:   r.Concept,
		ValueDate: r.ValueDate,
		DocType:   r.DocType,
		Reference: r.Reference,
	}
}
