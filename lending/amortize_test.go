package lending_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lending-engine/lending"
)

func TestPeriodicPayment_ZeroRate_SplitsPrincipalEvenly(t *testing.T) {
	// GIVEN: 1000 over 12 periods at 0%
	// WHEN: Computing the periodic payment
	// THEN: It is exactly principal / periods

	payment := lending.PeriodicPayment(decimal.NewFromInt(1000), 12, decimal.Zero)

	expected := decimal.NewFromInt(1000).Div(decimal.NewFromInt(12))
	assert.True(t, payment.Equal(expected),
		"expected %s, got %s", expected, payment)
}

func TestPeriodicPayment_PositiveRate_AmortizesToZero(t *testing.T) {
	// GIVEN: A fixed payment computed for principal/periods/rate
	// WHEN: Compounding the balance at the same rate and paying the fixed
	//       amount every period
	// THEN: The principal amortizes to (approximately) zero

	cases := []struct {
		name      string
		principal int64
		periods   int
		rate      decimal.Decimal
	}{
		{"personal terms", 10000, 12, lending.RatePersonal},
		{"mortgage terms", 250000, 36, lending.RateMortgage},
		{"single period", 500, 1, lending.RatePersonal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			principal := decimal.NewFromInt(tc.principal)
			payment := lending.PeriodicPayment(principal, tc.periods, tc.rate)
			require.True(t, payment.IsPositive())

			r := tc.rate.Div(decimal.NewFromInt(100))
			balance := principal
			for i := 0; i < tc.periods; i++ {
				balance = balance.Mul(decimal.NewFromInt(1).Add(r)).Sub(payment)
			}

			tolerance := decimal.NewFromFloat(0.01)
			assert.True(t, balance.Abs().LessThan(tolerance),
				"residual balance %s exceeds tolerance", balance)
		})
	}
}

func TestPeriodicPayment_ExceedsZeroRatePayment(t *testing.T) {
	// A positive rate always costs more per period than an interest-free plan.
	principal := decimal.NewFromInt(12000)

	withInterest := lending.PeriodicPayment(principal, 12, lending.RateMortgage)
	interestFree := lending.PeriodicPayment(principal, 12, decimal.Zero)

	assert.True(t, withInterest.GreaterThan(interestFree))
}
