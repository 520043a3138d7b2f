// Package commission decomposes a service's commercial margin into
// VAT-exempt, 21%-taxed and 10.5%-taxed commission components, and
// aggregates per-service results into per-currency totals.
package commission

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/types"
)

// SplitInput carries the financial fields of one service.
type SplitInput struct {
	SalePrice  types.Money
	CostPrice  types.Money
	Tax21      types.Money
	Tax105     types.Money
	Exempt     types.Money
	OtherTaxes types.Money
}

// Breakdown is the derived commission decomposition for one service.
// Derived values are computed on read and never stored back.
type Breakdown struct {
	NonComputable  types.Money `json:"nonComputable"`
	TaxableBase21  types.Money `json:"taxableBase21"`
	TaxableBase105 types.Money `json:"taxableBase10_5"`

	// Net commission per bracket, VAT excluded.
	CommissionExempt types.Money `json:"commissionExempt"`
	Commission21     types.Money `json:"commission21"`
	Commission105    types.Money `json:"commission10_5"`

	VATOnCommission21  types.Money `json:"vatOnCommission21"`
	VATOnCommission105 types.Money `json:"vatOnCommission10_5"`

	// TotalCommissionWithoutVAT sums the three net commission buckets.
	TotalCommissionWithoutVAT types.Money `json:"totalCommissionWithoutVAT"`
}

// Split derives the commission breakdown for one service.
//
// Two modes, selected by whether the service declares VAT amounts:
//
//   - declared-tax mode: taxable bases are reconstructed from the declared
//     VAT amounts, the margin is split proportionally between the exempt
//     and taxable portions of the cost, and each gross taxable bucket is
//     un-grossed by its rate.
//   - no-declared-tax mode: solves the two-unknown linear system over the
//     taxable and exempt portions of the cost for the 21% bracket only.
//
// Inconsistent input (margin not positive, declared bases exceeding the
// net cost base) is a domain error, never silently clamped.
func Split(in SplitInput) (Breakdown, error) {
	if err := validate(in); err != nil {
		return Breakdown{}, err
	}

	margin := in.SalePrice.Sub(in.CostPrice)

	if in.Tax21.Add(in.Tax105).IsPositive() {
		return splitDeclared(in, margin)
	}
	return splitUndeclared(in, margin)
}

func validate(in SplitInput) error {
	if in.SalePrice.LessThanOrEqual(in.CostPrice) {
		return apperror.NewMarginNotPositive(types.Format2(in.SalePrice), types.Format2(in.CostPrice))
	}
	for field, v := range map[string]types.Money{
		"tax_21":      in.Tax21,
		"tax_105":     in.Tax105,
		"exempt":      in.Exempt,
		"other_taxes": in.OtherTaxes,
	} {
		if v.IsNegative() {
			return apperror.NewValidation("tax amounts must not be negative").
				WithDetail("field", field).
				WithDetail("value", types.Format2(v))
		}
	}
	return nil
}

// splitDeclared handles services with declared VAT amounts.
func splitDeclared(in SplitInput, margin types.Money) (Breakdown, error) {
	base21 := types.Zero()
	if in.Tax21.IsPositive() {
		base21 = types.RoundStep(in.Tax21.Div(types.RateVAT21))
	}
	base105 := types.Zero()
	if in.Tax105.IsPositive() {
		base105 = types.RoundStep(in.Tax105.Div(types.RateVAT105))
	}

	// Cost net of the taxes it carries; the residual after exempt and
	// taxable bases is the non-computable bucket.
	netBase := in.CostPrice.Sub(in.Tax21).Sub(in.Tax105).Sub(in.OtherTaxes)
	computable := in.Exempt.Add(base21).Add(base105)
	nonComputable := netBase.Sub(computable)
	if nonComputable.IsNegative() {
		return Breakdown{}, apperror.NewInconsistentTaxes(
			"declared exempt and taxable bases exceed the net cost base").
			WithDetail("net_base", types.Format2(netBase)).
			WithDetail("computable", types.Format2(computable))
	}
	if !computable.IsPositive() {
		return Breakdown{}, apperror.NewInconsistentTaxes(
			"declared taxes without a computable cost base")
	}

	// Margin share attributable to the taxable cost, then split between
	// brackets proportionally to the declared taxes.
	taxableBases := base21.Add(base105)
	declared := in.Tax21.Add(in.Tax105)
	grossTaxable := types.RoundStep(margin.Mul(taxableBases).Div(computable))
	gross21 := types.RoundStep(grossTaxable.Mul(in.Tax21).Div(declared))
	gross105 := grossTaxable.Sub(gross21)

	net21 := types.RoundStep(gross21.Div(types.GrossFactor21))
	vat21 := gross21.Sub(net21)
	net105 := types.RoundStep(gross105.Div(types.GrossFactor105))
	vat105 := gross105.Sub(net105)

	exemptCommission := margin.Sub(gross21).Sub(gross105)

	return Breakdown{
		NonComputable:             nonComputable,
		TaxableBase21:             base21,
		TaxableBase105:            base105,
		CommissionExempt:          exemptCommission,
		Commission21:              net21,
		Commission105:             net105,
		VATOnCommission21:         vat21,
		VATOnCommission105:        vat105,
		TotalCommissionWithoutVAT: net21.Add(net105).Add(exemptCommission),
	}, nil
}

// splitUndeclared handles services without declared VAT amounts.
//
// Solves, for the default 21% bracket only:
//
//	netTaxable / netExempt   = taxableCost / exempt
//	1.21*netTaxable + netExempt = margin
func splitUndeclared(in SplitInput, margin types.Money) (Breakdown, error) {
	taxableCost := in.CostPrice.Sub(in.Exempt)

	// Fully exempt cost: the whole margin is exempt commission.
	if !taxableCost.IsPositive() {
		return Breakdown{
			NonComputable:             types.Zero(),
			TaxableBase21:             types.Zero(),
			TaxableBase105:            types.Zero(),
			CommissionExempt:          margin,
			Commission21:              types.Zero(),
			Commission105:             types.Zero(),
			VATOnCommission21:         types.Zero(),
			VATOnCommission105:        types.Zero(),
			TotalCommissionWithoutVAT: margin,
		}, nil
	}

	// netTaxable = margin*taxableCost / (1.21*taxableCost + exempt)
	denom := types.GrossFactor21.Mul(taxableCost).Add(in.Exempt)
	netTaxable := types.RoundStep(margin.Mul(taxableCost).Div(denom))
	vat := types.RoundStep(netTaxable.Mul(types.RateVAT21))
	netExempt := margin.Sub(netTaxable).Sub(vat)

	return Breakdown{
		NonComputable:             types.Zero(),
		TaxableBase21:             taxableCost,
		TaxableBase105:            types.Zero(),
		CommissionExempt:          netExempt,
		Commission21:              netTaxable,
		Commission105:             types.Zero(),
		VATOnCommission21:         vat,
		VATOnCommission105:        types.Zero(),
		TotalCommissionWithoutVAT: netTaxable.Add(netExempt),
	}, nil
}

// TransferFee computes the presentation-time transfer-fee deduction for a
// service: an absolute per-service override wins, else the per-service
// percentage, else the agency default percentage over the sale price.
// The result is never stored back into the service.
func TransferFee(sale types.Money, pctOverride, amountOverride *types.Money, agencyDefaultPct types.Money) types.Money {
	if amountOverride != nil {
		return *amountOverride
	}
	pct := agencyDefaultPct
	if pctOverride != nil {
		pct = *pctOverride
	}
	if !pct.IsPositive() {
		return types.Zero()
	}
	return types.RoundStep(sale.Mul(pct).Div(decimal.NewFromInt(100)))
}
