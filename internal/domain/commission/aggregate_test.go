package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/types"
	"backoffice/internal/domain/money"
)

func mustSplit(t *testing.T, in SplitInput) Breakdown {
	t.Helper()
	b, err := Split(in)
	require.NoError(t, err)
	return b
}

func TestAggregateCurrencyIsolation(t *testing.T) {
	arsIn := SplitInput{SalePrice: mny("1000"), CostPrice: mny("700"), Tax21: mny("63")}
	usdIn := SplitInput{SalePrice: mny("500"), CostPrice: mny("400")}

	items := []ServiceFinancials{
		{
			Currency:  "AR$",
			SalePrice: arsIn.SalePrice, CostPrice: arsIn.CostPrice, Tax21: arsIn.Tax21,
			Breakdown: mustSplit(t, arsIn),
		},
		{
			Currency:  "U$D",
			SalePrice: usdIn.SalePrice, CostPrice: usdIn.CostPrice,
			Breakdown: mustSplit(t, usdIn),
		},
	}

	totals := Aggregate(items, types.Zero())
	require.Len(t, totals, 2)
	require.Contains(t, totals, "ARS")
	require.Contains(t, totals, "USD")

	// ARS bucket must exclude every USD amount and vice versa.
	assertMoneyEq(t, mny("1000"), totals["ARS"].SalePrice)
	assertMoneyEq(t, mny("500"), totals["USD"].SalePrice)
	assertMoneyEq(t, mny("63"), totals["ARS"].Tax21)
	assert.True(t, totals["USD"].Tax21.IsZero())

	// Bucket keys are the normalized currency codes.
	for _, it := range items {
		assert.Contains(t, totals, money.Normalize(it.Currency))
	}
}

func TestAggregateSameCurrencySums(t *testing.T) {
	in := SplitInput{SalePrice: mny("1000"), CostPrice: mny("700"), Tax21: mny("63")}
	item := ServiceFinancials{
		Currency:  "ARS",
		SalePrice: in.SalePrice, CostPrice: in.CostPrice, Tax21: in.Tax21,
		Breakdown: mustSplit(t, in),
	}

	totals := Aggregate([]ServiceFinancials{item, item}, types.Zero())
	require.Len(t, totals, 1)
	assertMoneyEq(t, mny("2000"), totals["ARS"].SalePrice)
	assertMoneyEq(t, item.Breakdown.Commission21.Mul(mny("2")), totals["ARS"].Commission21)
}

func TestAggregateTransferFeeDeduction(t *testing.T) {
	in := SplitInput{SalePrice: mny("1000"), CostPrice: mny("700"), Tax21: mny("63")}
	override := mny("5")

	items := []ServiceFinancials{
		{Currency: "ARS", SalePrice: in.SalePrice, CostPrice: in.CostPrice, Tax21: in.Tax21, Breakdown: mustSplit(t, in)},
		{Currency: "ARS", SalePrice: in.SalePrice, CostPrice: in.CostPrice, Tax21: in.Tax21, Breakdown: mustSplit(t, in), TransferFeePct: &override},
	}

	totals := Aggregate(items, mny("2.4"))
	// 1000*2.4% + 1000*5%
	assertMoneyEq(t, mny("74"), totals["ARS"].TransferFees)
	assertMoneyEq(t, totals["ARS"].TotalCommissionWithoutVAT.Sub(mny("74")), totals["ARS"].CommissionNet)
}

func TestAggregateCardInterestFallback(t *testing.T) {
	in := SplitInput{SalePrice: mny("1000"), CostPrice: mny("700"), Tax21: mny("63")}
	split := mustSplit(t, in)

	items := []ServiceFinancials{
		// Known split: goes into the split totals.
		{
			Currency: "ARS", SalePrice: in.SalePrice, CostPrice: in.CostPrice, Tax21: in.Tax21,
			Breakdown:           split,
			CardInterest:        mny("121"),
			TaxableCardInterest: mny("100"),
			VATOnCardInterest:   mny("21"),
		},
		// Unknown split: raw value is kept apart, never force-split.
		{
			Currency: "ARS", SalePrice: in.SalePrice, CostPrice: in.CostPrice, Tax21: in.Tax21,
			Breakdown:    split,
			CardInterest: mny("50"),
		},
	}

	totals := Aggregate(items, types.Zero())
	assertMoneyEq(t, mny("100"), totals["ARS"].TaxableCardInterest)
	assertMoneyEq(t, mny("21"), totals["ARS"].VATOnCardInterest)
	assertMoneyEq(t, mny("50"), totals["ARS"].CardInterestRaw)
}
