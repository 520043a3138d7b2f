// Package services covers the travel services sold inside a booking and
// the earnings summary computed from them.
package services

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Service is one sellable item inside a booking: a flight, a hotel night,
// an excursion. Commission breakdowns are derived on read, never stored.
type Service struct {
	ID        id.ID  `json:"id" db:"id"`
	AgencyID  string `json:"agencyId" db:"agency_id"`
	BookingID id.ID  `json:"bookingId" db:"booking_id"`

	Description string `json:"description" db:"description"`
	Operator    string `json:"operator,omitempty" db:"operator"`

	SalePrice types.Money `json:"salePrice" db:"sale_price"`
	CostPrice types.Money `json:"costPrice" db:"cost_price"`
	Currency  string      `json:"currency" db:"currency"`

	// Declared tax breakdown of the cost, entered by hand upstream.
	Tax21      types.Money `json:"tax21" db:"tax_21"`
	Tax105     types.Money `json:"tax10_5" db:"tax_105"`
	Exempt     types.Money `json:"exempt" db:"exempt"`
	OtherTaxes types.Money `json:"otherTaxes" db:"other_taxes"`

	CardInterest        types.Money `json:"cardInterest" db:"card_interest"`
	TaxableCardInterest types.Money `json:"taxableCardInterest" db:"taxable_card_interest"`
	VATOnCardInterest   types.Money `json:"vatOnCardInterest" db:"vat_on_card_interest"`

	// Per-service overrides of the agency transfer fee. Amount wins over
	// percentage when both are set.
	TransferFeePct    *types.Money `json:"transferFeePct,omitempty" db:"transfer_fee_pct"`
	TransferFeeAmount *types.Money `json:"transferFeeAmount,omitempty" db:"transfer_fee_amount"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (s *Service) Validate(ctx context.Context) error {
	if id.IsNil(s.BookingID) {
		return apperror.NewValidation("service requires a booking").
			WithDetail("field", "bookingId")
	}
	if s.SalePrice.IsNegative() || s.CostPrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative")
	}
	for field, v := range map[string]types.Money{
		"tax21": s.Tax21, "tax10_5": s.Tax105, "exempt": s.Exempt, "otherTaxes": s.OtherTaxes,
	} {
		if v.IsNegative() {
			return apperror.NewValidation("declared tax fields must not be negative").
				WithDetail("field", field)
		}
	}
	return nil
}

// Booking is the minimal projection the financial core needs: ownership
// for scope checks.
type Booking struct {
	ID       id.ID  `json:"id" db:"id"`
	AgencyID string `json:"agencyId" db:"agency_id"`
	ClientID id.ID  `json:"clientId" db:"client_id"`
}

// AgencyConfig holds the agency-wide defaults the financial core reads.
type AgencyConfig struct {
	AgencyID string `json:"agencyId" db:"agency_id"`

	DefaultCurrency    string      `json:"defaultCurrency" db:"default_currency"`
	DefaultTransferFee types.Money `json:"defaultTransferFeePct" db:"default_transfer_fee_pct"`

	StorageQuotaBytes int64 `json:"storageQuotaBytes" db:"storage_quota_bytes"`

	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
