package lending

// =============================================================================
// DELINQUENCY ENFORCER - Stateless overdue sweep
// =============================================================================

// DelinquencyEnforcer sweeps loans against a reference date, transitioning
// overdue installments and accruing their one-time penalties. It carries no
// state of its own; repeated sweeps with the same or a later date are
// harmless because the installment guards the transition.
//
// The registry runs a sweep after restoring persisted state and again
// before every listing, lookup and payment operation, so the state callers
// observe is always current against "now".
type DelinquencyEnforcer struct {
	// Clock supplies the reference date for Sweep. Defaults to Today.
	Clock func() Date
}

func NewDelinquencyEnforcer() DelinquencyEnforcer {
	return DelinquencyEnforcer{Clock: Today}
}

// Sweep evaluates every loan against the enforcer's clock.
func (e DelinquencyEnforcer) Sweep(loans []*Loan) {
	e.SweepAt(e.Clock(), loans)
}

// SweepAt evaluates every loan against an explicit reference date.
func (e DelinquencyEnforcer) SweepAt(ref Date, loans []*Loan) {
	for _, loan := range loans {
		loan.EvaluateDelinquency(ref)
	}
}
