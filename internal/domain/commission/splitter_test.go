package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/types"
)

// mny builds a Money from its decimal string form.
func mny(s string) types.Money {
	return types.MustMoney(s)
}

// assertMoneyEq compares decimals within one cent.
func assertMoneyEq(t *testing.T, expected, actual types.Money, msgAndArgs ...any) {
	t.Helper()
	diff := expected.Sub(actual).Abs()
	assert.True(t, diff.LessThanOrEqual(mny("0.01")),
		"expected %s, got %s (diff %s): %v", expected, actual, diff, msgAndArgs)
}

func TestSplitDeclaredMode(t *testing.T) {
	// sale=1000, cost=700, tax21=63 -> taxableBase21 = 63/0.21 = 300,
	// margin = 300, exempt commission must be zero since exempt = 0.
	b, err := Split(SplitInput{
		SalePrice: mny("1000"),
		CostPrice: mny("700"),
		Tax21:     mny("63"),
	})
	require.NoError(t, err)

	assertMoneyEq(t, mny("300"), b.TaxableBase21)
	assert.True(t, b.TaxableBase105.IsZero())
	assertMoneyEq(t, mny("337"), b.NonComputable) // 700 - 63 - 300
	assert.True(t, b.CommissionExempt.IsZero(), "no exempt cost, no exempt commission")

	// net + VAT reconstructs a gross commission consistent with 21%.
	gross := b.Commission21.Add(b.VATOnCommission21)
	assertMoneyEq(t, mny("300"), gross)
	assertMoneyEq(t, b.Commission21.Mul(types.RateVAT21), b.VATOnCommission21)
}

func TestSplitDeclaredModeBothBrackets(t *testing.T) {
	b, err := Split(SplitInput{
		SalePrice: mny("2000"),
		CostPrice: mny("1500"),
		Tax21:     mny("105"),   // base 500
		Tax105:    mny("42"),    // base 400
		Exempt:    mny("300"),
	})
	require.NoError(t, err)

	assertMoneyEq(t, mny("500"), b.TaxableBase21)
	assertMoneyEq(t, mny("400"), b.TaxableBase105)
	// netBase = 1500-105-42 = 1353; computable = 300+500+400 = 1200
	assertMoneyEq(t, mny("153"), b.NonComputable)

	// Margin conserves across exempt + gross buckets.
	margin := mny("500")
	reconstructed := b.CommissionExempt.
		Add(b.Commission21).Add(b.VATOnCommission21).
		Add(b.Commission105).Add(b.VATOnCommission105)
	assertMoneyEq(t, margin, reconstructed)

	assert.True(t, b.CommissionExempt.IsPositive())
	assert.True(t, b.Commission105.IsPositive())
	assertMoneyEq(t, b.Commission21.Add(b.Commission105).Add(b.CommissionExempt), b.TotalCommissionWithoutVAT)
}

func TestSplitUndeclaredMode(t *testing.T) {
	// taxableCost = 600, exempt = 400, margin = 200.
	b, err := Split(SplitInput{
		SalePrice: mny("1200"),
		CostPrice: mny("1000"),
		Exempt:    mny("400"),
	})
	require.NoError(t, err)

	// netTaxable/netExempt must follow taxableCost/exempt = 1.5
	ratio := b.Commission21.Div(b.CommissionExempt)
	assertMoneyEq(t, mny("1.5"), ratio)

	// 1.21*netTaxable + netExempt = margin
	reconstructed := types.GrossFactor21.Mul(b.Commission21).Add(b.CommissionExempt)
	assertMoneyEq(t, mny("200"), reconstructed)

	assert.True(t, b.Commission105.IsZero())
	assert.True(t, b.VATOnCommission105.IsZero())
}

func TestSplitUndeclaredFullyExemptCost(t *testing.T) {
	b, err := Split(SplitInput{
		SalePrice: mny("900"),
		CostPrice: mny("750"),
		Exempt:    mny("750"),
	})
	require.NoError(t, err)

	assertMoneyEq(t, mny("150"), b.CommissionExempt)
	assert.True(t, b.Commission21.IsZero())
	assert.True(t, b.VATOnCommission21.IsZero())
	assertMoneyEq(t, mny("150"), b.TotalCommissionWithoutVAT)
}

func TestSplitRejectsNonPositiveMargin(t *testing.T) {
	for _, tc := range []struct{ sale, cost string }{
		{"700", "700"},
		{"600", "700"},
	} {
		_, err := Split(SplitInput{SalePrice: mny(tc.sale), CostPrice: mny(tc.cost)})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeMarginNotPositive, appErr.Code)
	}
}

func TestSplitRejectsInconsistentBases(t *testing.T) {
	// tax21=42 implies base 200, but cost net of taxes is only 58.
	_, err := Split(SplitInput{
		SalePrice: mny("500"),
		CostPrice: mny("100"),
		Tax21:     mny("42"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInconsistentTaxes, appErr.Code)
}

func TestSplitRejectsNegativeTaxes(t *testing.T) {
	_, err := Split(SplitInput{
		SalePrice: mny("1000"),
		CostPrice: mny("700"),
		Exempt:    mny("-5"),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestTransferFee(t *testing.T) {
	pct := mny("3.5")
	amt := mny("12")

	// agency default applies
	assertMoneyEq(t, mny("24"), TransferFee(mny("1000"), nil, nil, mny("2.4")))
	// per-service pct override wins over default
	assertMoneyEq(t, mny("35"), TransferFee(mny("1000"), &pct, nil, mny("2.4")))
	// absolute amount override wins over both
	assertMoneyEq(t, mny("12"), TransferFee(mny("1000"), &pct, &amt, mny("2.4")))
	// no pct anywhere -> zero
	assert.True(t, TransferFee(mny("1000"), nil, nil, types.Zero()).IsZero())
}
