package simulation

import (
	"fmt"
	"math/rand"
	"time"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/store/models"

	"github.com/shopspring/decimal"
)

// LoanState is the evolving per-loan simulation state carried between
// months. All money fields stay exact decimals internally; rounding to
// two places happens only when a fact record is emitted.
type LoanState struct {
	LoanID           int64
	MOB              int
	BalancePrincipal decimal.Decimal
	OverduePrincipal decimal.Decimal
	OverdueInterest  decimal.Decimal
	Bucket           consts.Bucket
	OverdueDays      int
	MonthsIn90Plus   int
	Status           consts.LoanStatus
}

// NewLoanState is the state of a loan at issue, before its first
// simulated month.
func NewLoanState(loan models.Loan) LoanState {
	return LoanState{
		LoanID:           loan.LoanID,
		MOB:              0,
		BalancePrincipal: decimal.NewFromFloat(loan.LoanAmount).Round(2),
		OverduePrincipal: decimal.Zero,
		OverdueInterest:  decimal.Zero,
		Bucket:           consts.BucketCurrent,
		OverdueDays:      0,
		Status:           consts.StatusActive,
	}
}

// StepInput carries everything one monthly step needs besides the
// carried state.
type StepInput struct {
	Macro       models.MacroSnapshot
	Schedule    *Schedule
	PeriodMonth string
	BatchID     string
}

// Step advances one loan by one month: sample the payment outcome,
// route the actual payment through the waterfall, update arrears and
// balance, age DPD and re-bucket, then resolve terminal transitions.
// It returns the next state and the fact record for the month.
func Step(st LoanState, in StepInput, model *TransitionModel, rng *rand.Rand) (LoanState, models.MonthlyFactRecord, error) {
	if st.Status.Terminal() {
		return st, models.MonthlyFactRecord{}, &InvariantViolationError{
			LoanID: st.LoanID,
			MOB:    st.MOB,
			Reason: "step called on terminal loan",
		}
	}

	pol := model.Policy()
	mob := st.MOB + 1

	// Scheduled obligation for this month off the actual balance. The
	// constant annuity payment caps it; the part of the balance not yet
	// billed as overdue clamps it, since overdue principal is already due
	// in its own tier.
	interestScheduled := st.BalancePrincipal.Mul(in.Schedule.MonthlyRate).Round(2)
	principalNotYetDue := st.BalancePrincipal.Sub(st.OverduePrincipal)
	scheduledPrincipal := in.Schedule.Payment.Sub(interestScheduled)
	if scheduledPrincipal.Sign() < 0 {
		scheduledPrincipal = decimal.Zero
	}
	if scheduledPrincipal.Cmp(principalNotYetDue) > 0 {
		scheduledPrincipal = principalNotYetDue
	}
	if mob >= len(in.Schedule.Entries) {
		// Final contractual month: the rest of the balance falls due on
		// top of whatever principal is already overdue.
		scheduledPrincipal = principalNotYetDue
	}
	totalDue := st.OverdueInterest.
		Add(st.OverduePrincipal).
		Add(interestScheduled).
		Add(scheduledPrincipal)

	scenario := consts.ScenarioBase
	outcome := OutcomeRoll
	var actual decimal.Decimal

	if rng.Float64() < pol.EarlyRepayProb {
		// Full early repayment: clear every arrear tier, this month's
		// interest, and the whole remaining balance.
		scenario = consts.ScenarioEarlyRepay
		outcome = OutcomeFullPay
		actual = st.OverdueInterest.Add(interestScheduled).Add(st.BalancePrincipal)
	} else {
		sampled, err := model.Sample(rng, st.Bucket, in.Macro)
		if err != nil {
			return st, models.MonthlyFactRecord{}, &ConfigError{Reason: err.Error()}
		}
		outcome = sampled

		switch outcome {
		case OutcomeFullPay:
			actual = interestScheduled.Add(scheduledPrincipal)
		case OutcomeCure:
			scenario = consts.ScenarioCure
			actual = totalDue
		case OutcomeDefault:
			actual = decimal.Zero
		case OutcomeRoll:
			fractions := pol.Fractions(st.Bucket)
			actual = decimal.Min(totalDue, decimal.Zero.
				Add(st.OverdueInterest.Mul(decimal.NewFromFloat(fractions[0]))).
				Add(st.OverduePrincipal.Mul(decimal.NewFromFloat(fractions[1]))).
				Add(interestScheduled.Mul(decimal.NewFromFloat(fractions[2]))).
				Add(scheduledPrincipal.Mul(decimal.NewFromFloat(fractions[3]))).
				Round(2))
		}
	}

	alloc := Allocate(actual, st.OverdueInterest, st.OverduePrincipal, interestScheduled, scheduledPrincipal)

	next := st
	next.MOB = mob
	next.OverdueInterest = st.OverdueInterest.
		Sub(alloc.OverdueInterest).
		Add(interestScheduled.Sub(alloc.ScheduledInterest))
	next.OverduePrincipal = st.OverduePrincipal.
		Sub(alloc.OverduePrincipal).
		Add(scheduledPrincipal.Sub(alloc.ScheduledPrincipal))
	next.BalancePrincipal = st.BalancePrincipal.Sub(alloc.PrincipalReduction())

	if err := checkInvariants(next); err != nil {
		return st, models.MonthlyFactRecord{}, err
	}

	delinquent := next.OverdueInterest.Sign() > 0 || next.OverduePrincipal.Sign() > 0
	if delinquent {
		next.OverdueDays += consts.DaysPerOverdueMonth
		next.Bucket = pol.BucketForOverdueDays(next.OverdueDays)
	} else {
		next.OverdueDays = 0
		next.Bucket = consts.BucketCurrent
	}

	status := consts.StatusActive
	switch {
	case next.BalancePrincipal.IsZero() && !delinquent:
		status = consts.StatusPaidOff
	case next.Bucket == consts.BucketDPD90Plus:
		next.MonthsIn90Plus++
		sampledDefault := outcome == OutcomeDefault && st.Bucket == consts.BucketDPD90Plus
		if sampledDefault || next.MonthsIn90Plus > pol.DefaultGraceMonths {
			status = consts.StatusDefaulted
		}
	default:
		next.MonthsIn90Plus = 0
		if st.Bucket.Delinquent() && !next.Bucket.Delinquent() {
			status = consts.StatusCured
		}
	}
	next.Status = status

	record := models.MonthlyFactRecord{
		LoanID:            st.LoanID,
		PeriodMonth:       in.PeriodMonth,
		MOB:               mob,
		BalancePrincipal:  moneyOut(next.BalancePrincipal),
		OverduePrincipal:  moneyOut(next.OverduePrincipal),
		InterestScheduled: moneyOut(interestScheduled),
		OverdueInterest:   moneyOut(next.OverdueInterest),
		ScheduledPayment:  moneyOut(in.Schedule.Payment),
		ActualPayment:     moneyOut(actual),
		DPDBucket:         string(next.Bucket),
		OverdueDays:       next.OverdueDays,
		Status:            string(status),
		MigrationScenario: scenario,
		BatchID:           in.BatchID,
		CreatedAt:         time.Now().UTC(),
	}
	return next, record, nil
}

func checkInvariants(st LoanState) error {
	fail := func(reason string) error {
		return &InvariantViolationError{
			LoanID: st.LoanID,
			MOB:    st.MOB,
			Reason: fmt.Sprintf("%s (balance=%s overdue_principal=%s overdue_interest=%s)",
				reason, st.BalancePrincipal, st.OverduePrincipal, st.OverdueInterest),
		}
	}
	switch {
	case st.BalancePrincipal.Sign() < 0:
		return fail("negative principal balance")
	case st.OverduePrincipal.Sign() < 0:
		return fail("negative overdue principal")
	case st.OverdueInterest.Sign() < 0:
		return fail("negative overdue interest")
	case st.OverduePrincipal.Cmp(st.BalancePrincipal) > 0:
		return fail("overdue principal exceeds balance")
	}
	return nil
}

// moneyOut converts an internal exact decimal to the two-place float
// persisted on fact records.
func moneyOut(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
