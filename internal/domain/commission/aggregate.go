package commission

import (
	"backoffice/internal/core/types"
	"backoffice/internal/domain/money"
)

// ServiceFinancials carries the raw financial fields of one service plus
// its computed breakdown, as consumed by the aggregator.
type ServiceFinancials struct {
	Currency string

	SalePrice  types.Money
	CostPrice  types.Money
	Tax21      types.Money
	Tax105     types.Money
	Exempt     types.Money
	OtherTaxes types.Money

	CardInterest        types.Money
	TaxableCardInterest types.Money
	VATOnCardInterest   types.Money

	TransferFeePct    *types.Money
	TransferFeeAmount *types.Money

	Breakdown Breakdown
}

// Totals accumulates every numeric field per currency bucket. Fields are
// summed independently; no cross-currency conversion is ever performed.
type Totals struct {
	SalePrice  types.Money `json:"salePrice"`
	CostPrice  types.Money `json:"costPrice"`
	Tax21      types.Money `json:"tax21"`
	Tax105     types.Money `json:"tax10_5"`
	Exempt     types.Money `json:"exempt"`
	OtherTaxes types.Money `json:"otherTaxes"`

	NonComputable             types.Money `json:"nonComputable"`
	TaxableBase21             types.Money `json:"taxableBase21"`
	TaxableBase105            types.Money `json:"taxableBase10_5"`
	CommissionExempt          types.Money `json:"commissionExempt"`
	Commission21              types.Money `json:"commission21"`
	Commission105             types.Money `json:"commission10_5"`
	VATOnCommission21         types.Money `json:"vatOnCommission21"`
	VATOnCommission105        types.Money `json:"vatOnCommission10_5"`
	TotalCommissionWithoutVAT types.Money `json:"totalCommissionWithoutVAT"`

	// TransferFees is the presentation-time deduction; CommissionNet is
	// TotalCommissionWithoutVAT minus TransferFees.
	TransferFees  types.Money `json:"transferFees"`
	CommissionNet types.Money `json:"commissionNet"`

	// Card interest with a known 21%/VAT split.
	TaxableCardInterest types.Money `json:"taxableCardInterest"`
	VATOnCardInterest   types.Money `json:"vatOnCardInterest"`

	// CardInterestRaw accumulates interest without a known split; it is
	// kept apart rather than force-split.
	CardInterestRaw types.Money `json:"cardInterestRaw"`
}

func newTotals() *Totals {
	z := types.Zero()
	return &Totals{
		SalePrice: z, CostPrice: z, Tax21: z, Tax105: z, Exempt: z, OtherTaxes: z,
		NonComputable: z, TaxableBase21: z, TaxableBase105: z,
		CommissionExempt: z, Commission21: z, Commission105: z,
		VATOnCommission21: z, VATOnCommission105: z, TotalCommissionWithoutVAT: z,
		TransferFees: z, CommissionNet: z,
		TaxableCardInterest: z, VATOnCardInterest: z, CardInterestRaw: z,
	}
}

// Aggregate sums per-service computed fields across a service list,
// grouped by normalized currency, folding in transfer-fee deductions and
// the card-interest fallback.
func Aggregate(items []ServiceFinancials, agencyFeePct types.Money) map[string]*Totals {
	out := make(map[string]*Totals)

	for _, it := range items {
		cur := money.Normalize(it.Currency)
		t, ok := out[cur]
		if !ok {
			t = newTotals()
			out[cur] = t
		}

		t.SalePrice = t.SalePrice.Add(it.SalePrice)
		t.CostPrice = t.CostPrice.Add(it.CostPrice)
		t.Tax21 = t.Tax21.Add(it.Tax21)
		t.Tax105 = t.Tax105.Add(it.Tax105)
		t.Exempt = t.Exempt.Add(it.Exempt)
		t.OtherTaxes = t.OtherTaxes.Add(it.OtherTaxes)

		b := it.Breakdown
		t.NonComputable = t.NonComputable.Add(b.NonComputable)
		t.TaxableBase21 = t.TaxableBase21.Add(b.TaxableBase21)
		t.TaxableBase105 = t.TaxableBase105.Add(b.TaxableBase105)
		t.CommissionExempt = t.CommissionExempt.Add(b.CommissionExempt)
		t.Commission21 = t.Commission21.Add(b.Commission21)
		t.Commission105 = t.Commission105.Add(b.Commission105)
		t.VATOnCommission21 = t.VATOnCommission21.Add(b.VATOnCommission21)
		t.VATOnCommission105 = t.VATOnCommission105.Add(b.VATOnCommission105)
		t.TotalCommissionWithoutVAT = t.TotalCommissionWithoutVAT.Add(b.TotalCommissionWithoutVAT)

		fee := TransferFee(it.SalePrice, it.TransferFeePct, it.TransferFeeAmount, agencyFeePct)
		t.TransferFees = t.TransferFees.Add(fee)
		t.CommissionNet = t.TotalCommissionWithoutVAT.Sub(t.TransferFees)

		// Split known? Accumulate the split fields. Otherwise keep the raw
		// value apart so presentation can distinguish the two.
		if it.TaxableCardInterest.Add(it.VATOnCardInterest).IsPositive() {
			t.TaxableCardInterest = t.TaxableCardInterest.Add(it.TaxableCardInterest)
			t.VATOnCardInterest = t.VATOnCardInterest.Add(it.VATOnCardInterest)
		} else if it.CardInterest.IsPositive() {
			t.CardInterestRaw = t.CardInterestRaw.Add(it.CardInterest)
		}
	}

	return out
}
