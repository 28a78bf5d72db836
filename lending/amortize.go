package lending

import "github.com/shopspring/decimal"

// =============================================================================
// AMORTIZATION - Fixed-payment (French/annuity) schedule
// =============================================================================

var one = decimal.NewFromInt(1)

// PeriodicPayment computes the constant payment of a fixed-payment
// amortization plan:
//
//	payment = principal * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the flat per-period rate (ratePercent / 100) and n the number
// of periods. With a zero rate the plan degenerates to principal / n.
//
// Callers guarantee principal > 0, periods > 0 and ratePercent >= 0; there
// is no error path here.
func PeriodicPayment(principal decimal.Decimal, periods int, ratePercent decimal.Decimal) decimal.Decimal {
	n := decimal.NewFromInt(int64(periods))
	if ratePercent.IsZero() {
		return principal.Div(n)
	}

	r := ratePercent.Div(decimal.NewFromInt(100))
	factor := one.Add(r).Pow(n)
	return principal.Mul(r).Mul(factor).Div(factor.Sub(one))
}
