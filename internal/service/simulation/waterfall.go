package simulation

import "github.com/shopspring/decimal"

// Allocation is the result of routing one payment through the
// collections waterfall. The tiers sum to the payment exactly.
type Allocation struct {
	OverdueInterest    decimal.Decimal
	OverduePrincipal   decimal.Decimal
	ScheduledInterest  decimal.Decimal
	ScheduledPrincipal decimal.Decimal
	// Prepayment is whatever remains after all four tiers and is
	// applied as extra principal reduction.
	Prepayment decimal.Decimal
}

// Total returns the payment amount the allocation accounts for.
func (a Allocation) Total() decimal.Decimal {
	return a.OverdueInterest.
		Add(a.OverduePrincipal).
		Add(a.ScheduledInterest).
		Add(a.ScheduledPrincipal).
		Add(a.Prepayment)
}

// PrincipalReduction returns how much the outstanding balance shrinks.
func (a Allocation) PrincipalReduction() decimal.Decimal {
	return a.OverduePrincipal.Add(a.ScheduledPrincipal).Add(a.Prepayment)
}

// Allocate splits an actual payment across the due tiers in strict
// priority order: overdue interest, overdue principal, current
// scheduled interest, current scheduled principal. Pure function.
func Allocate(payment, overdueInterest, overduePrincipal, scheduledInterest, scheduledPrincipal decimal.Decimal) Allocation {
	remaining := payment
	take := func(due decimal.Decimal) decimal.Decimal {
		if remaining.Sign() <= 0 || due.Sign() <= 0 {
			return decimal.Zero
		}
		paid := decimal.Min(remaining, due)
		remaining = remaining.Sub(paid)
		return paid
	}

	var alloc Allocation
	alloc.OverdueInterest = take(overdueInterest)
	alloc.OverduePrincipal = take(overduePrincipal)
	alloc.ScheduledInterest = take(scheduledInterest)
	alloc.ScheduledPrincipal = take(scheduledPrincipal)
	if remaining.Sign() > 0 {
		alloc.Prepayment = remaining
	} else {
		alloc.Prepayment = decimal.Zero
	}
	return alloc
}
