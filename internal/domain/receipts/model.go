package receipts

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Receipt is a payment-in record tied to a booking and client. The amount
// is immutable once created; corrections go through a new receipt plus a
// compensating ledger entry.
type Receipt struct {
	ID       id.ID  `json:"id" db:"id"`
	AgencyID string `json:"agencyId" db:"agency_id"`

	BookingID id.ID `json:"bookingId" db:"booking_id"`
	ClientID  id.ID `json:"clientId" db:"client_id"`

	Amount   types.Money `json:"amount" db:"amount"`
	Currency string      `json:"currency" db:"currency"`

	// AmountString is the amount spelled out in words, as printed on the
	// receipt ("son pesos diez mil ...").
	AmountString string `json:"amountString,omitempty" db:"amount_string"`

	// Optional conversion pair when the receipt was charged in a currency
	// other than the booking's.
	BaseCurrency    string       `json:"baseCurrency,omitempty" db:"base_currency"`
	CounterCurrency string       `json:"counterCurrency,omitempty" db:"counter_currency"`
	ExchangeRate    *types.Money `json:"exchangeRate,omitempty" db:"exchange_rate"`

	PaymentFeeAmount   *types.Money `json:"paymentFeeAmount,omitempty" db:"payment_fee_amount"`
	PaymentFeeCurrency string       `json:"paymentFeeCurrency,omitempty" db:"payment_fee_currency"`

	PaymentMethodID *id.ID `json:"paymentMethodId,omitempty" db:"payment_method_id"`

	Concept   string    `json:"concept" db:"concept"`
	IssueDate time.Time `json:"issueDate" db:"issue_date"`

	// Services covered by this receipt, copied from the settled payments.
	ServiceIDs []id.ID `json:"serviceIds" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
}

func (r *Receipt) Validate(ctx context.Context) error {
	if id.IsNil(r.BookingID) {
		return apperror.NewValidation("receipt requires a booking").
			WithDetail("field", "bookingId")
	}
	if id.IsNil(r.ClientID) {
		return apperror.NewValidation("receipt requires a client").
			WithDetail("field", "clientId")
	}
	if r.Amount.IsZero() || r.Amount.IsNegative() {
		return apperror.NewValidation("receipt amount must be positive").
			WithDetail("field", "amount")
	}
	if r.Currency == "" {
		return apperror.NewValidation("receipt currency is required").
			WithDetail("field", "currency")
	}
	return nil
}
