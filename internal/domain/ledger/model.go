// Package ledger maintains per-account running balances of signed credit
// entries. Every mutation preserves, in one transaction, the invariant
// that account.balance equals the sum of its remaining entries.
package ledger

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/money"
)

// CreditAccount holds a running balance. Balance is the only persisted
// state; it is never mutated outside a transaction that also writes the
// compensating entry change.
type CreditAccount struct {
	ID       id.ID       `db:"id" json:"id"`
	AgencyID string      `db:"agency_id" json:"agencyId"`
	ClientID *id.ID      `db:"client_id" json:"clientId,omitempty"`
	Name     string      `db:"name" json:"name"`
	Currency string      `db:"currency" json:"currency"`
	Balance  types.Money `db:"balance" json:"balance"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks account invariants.
func (a *CreditAccount) Validate(ctx context.Context) error {
	if a.Name == "" {
		return apperror.NewValidation("account name is required").
			WithDetail("field", "name")
	}
	if a.AgencyID == "" {
		return apperror.NewValidation("agency is required").
			WithDetail("field", "agencyId")
	}
	a.Currency = money.Normalize(a.Currency)
	return nil
}

// CreditEntry is one signed movement against an account. Amount and
// currency are immutable after creation; only metadata may change.
type CreditEntry struct {
	ID        id.ID       `db:"id" json:"id"`
	AccountID id.ID       `db:"account_id" json:"accountId"`
	Amount    types.Money `db:"amount" json:"amount"`
	Currency  string      `db:"currency" json:"currency"`
	Concept   string      `db:"concept" json:"concept"`
	ValueDate time.Time   `db:"value_date" json:"valueDate"`
	DocType   string      `db:"doc_type" json:"docType,omitempty"`
	Reference string      `db:"reference" json:"reference,omitempty"`

	// Links to originating financial documents. An entry carrying any of
	// these cannot be deleted: unlinking would desynchronize the
	// originating document's financial state.
	BookingID     *id.ID `db:"booking_id" json:"bookingId,omitempty"`
	ReceiptID     *id.ID `db:"receipt_id" json:"receiptId,omitempty"`
	InvestmentID  *id.ID `db:"investment_id" json:"investmentId,omitempty"`
	OperatorDueID *id.ID `db:"operator_due_id" json:"operatorDueId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// IsLinked reports whether the entry references another financial document.
func (e *CreditEntry) IsLinked() bool {
	return e.BookingID != nil || e.ReceiptID != nil ||
		e.InvestmentID != nil || e.OperatorDueID != nil
}

// Validate checks entry invariants.
func (e *CreditEntry) Validate(ctx context.Context) error {
	if id.IsNil(e.AccountID) {
		return apperror.NewValidation("account is required").
			WithDetail("field", "accountId")
	}
	if e.Amount.IsZero() {
		return apperror.NewValidation("amount must not be zero").
			WithDetail("field", "amount")
	}
	if e.Concept == "" {
		return apperror.NewValidation("concept is required").
			WithDetail("field", "concept")
	}
	e.Currency = money.Normalize(e.Currency)
	return nil
}

// EntryUpdate carries the mutable metadata of an entry. Amount and
// currency are deliberately absent from this type: changing them would
// invalidate the balance invariant without a compensating transaction.
type EntryUpdate struct {
	Concept   *string    `json:"concept,omitempty"`
	ValueDate *time.Time `json:"valueDate,omitempty"`
	DocType   *string    `json:"docType,omitempty"`
	Reference *string    `json:"reference,omitempty"`
}
