package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)

	// Below this the annuity factor degenerates numerically and the
	// schedule falls back to equal principal installments.
	nearZeroRate = decimal.New(1, -9)
)

// ScheduleEntry is one theoretical month of an amortization schedule,
// assuming full on-time payment.
type ScheduleEntry struct {
	MOB       int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	// Balance is the theoretical remaining balance after this payment.
	Balance decimal.Decimal
}

// Schedule is the full theoretical amortization of a loan. It is a
// pure function of loan attributes, computed once per loan and reused
// across the month loop.
type Schedule struct {
	Payment     decimal.Decimal
	MonthlyRate decimal.Decimal
	Entries     []ScheduleEntry
}

// BuildSchedule computes the annuity schedule for the given principal,
// annual rate in percent and term. The final month's principal portion
// is clamped so the theoretical balance lands on exactly zero.
func BuildSchedule(amount decimal.Decimal, annualRatePercent decimal.Decimal, termMonths int) (*Schedule, error) {
	if termMonths <= 0 {
		return nil, fmt.Errorf("term_months must be positive, got %d", termMonths)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("loan amount must be positive, got %s", amount)
	}
	if annualRatePercent.Sign() < 0 {
		return nil, fmt.Errorf("interest rate must not be negative, got %s", annualRatePercent)
	}

	monthlyRate := annualRatePercent.Div(hundred).Div(twelve)

	var payment decimal.Decimal
	if monthlyRate.Cmp(nearZeroRate) <= 0 {
		monthlyRate = decimal.Zero
		payment = amount.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	} else {
		growth := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))
		factor := monthlyRate.Mul(growth).Div(growth.Sub(one))
		payment = amount.Mul(factor).Round(2)
	}

	entries := make([]ScheduleEntry, 0, termMonths)
	balance := amount
	for mob := 1; mob <= termMonths; mob++ {
		interest := balance.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)
		if principal.Sign() < 0 {
			principal = decimal.Zero
		}
		if mob == termMonths || principal.Cmp(balance) > 0 {
			// Absorb rounding drift in the last installment.
			principal = balance
		}
		balance = balance.Sub(principal)
		entries = append(entries, ScheduleEntry{
			MOB:       mob,
			Payment:   interest.Add(principal),
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
	}

	return &Schedule{
		Payment:     payment,
		MonthlyRate: monthlyRate,
		Entries:     entries,
	}, nil
}
