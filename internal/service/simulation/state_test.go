package simulation

import (
	"math/rand"
	"testing"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/policy"
	"credit-sim-worker/internal/pkg/store/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoan() models.Loan {
	return models.Loan{
		LoanID:       101,
		LoanAmount:   120000,
		InterestRate: 18,
		TermMonths:   12,
	}
}

// runMonths drives a loan through its term with a fresh deterministic
// RNG per month, stopping on terminal status.
func runMonths(t *testing.T, loan models.Loan, model *TransitionModel) []models.MonthlyFactRecord {
	t.Helper()
	sched, err := BuildSchedule(
		decimal.NewFromFloat(loan.LoanAmount),
		decimal.NewFromFloat(loan.InterestRate),
		loan.TermMonths,
	)
	require.NoError(t, err)

	state := NewLoanState(loan)
	var facts []models.MonthlyFactRecord
	for mob := 1; mob <= loan.TermMonths; mob++ {
		rng := rand.New(rand.NewSource(int64(mob)))
		next, record, stepErr := Step(state, StepInput{
			Macro:       neutralMacro(),
			Schedule:    sched,
			PeriodMonth: "2024-01",
			BatchID:     "batch-test",
		}, model, rng)
		require.NoError(t, stepErr)
		facts = append(facts, record)
		state = next
		if state.Status.Terminal() {
			break
		}
	}
	return facts
}

func TestStep_FullPayingLoanAmortizesToPaidOff(t *testing.T) {
	model := NewTransitionModel(testPolicy(t, nil)) // full_pay = 1 everywhere

	facts := runMonths(t, testLoan(), model)
	require.Len(t, facts, 12)

	prevBalance := 120000.0
	for i, record := range facts {
		assert.Equal(t, i+1, record.MOB)
		assert.Equal(t, string(consts.BucketCurrent), record.DPDBucket)
		assert.Zero(t, record.OverdueDays)
		assert.Zero(t, record.OverduePrincipal)
		assert.Zero(t, record.OverdueInterest)
		assert.Less(t, record.BalancePrincipal, prevBalance)
		prevBalance = record.BalancePrincipal

		if i < len(facts)-1 {
			assert.Equal(t, string(consts.StatusActive), record.Status)
		}
	}

	last := facts[len(facts)-1]
	assert.Equal(t, string(consts.StatusPaidOff), last.Status)
	assert.Zero(t, last.BalancePrincipal)
}

func TestStep_SustainedNonPaymentProgressesBucketsInOrder(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		for _, bucket := range consts.Buckets {
			p.BaseProbabilities[bucket] = policy.BucketProbabilities{} // always roll
		}
		p.DefaultGraceMonths = 1
	})
	model := NewTransitionModel(pol)

	facts := runMonths(t, testLoan(), model)
	require.Len(t, facts, 5)

	expected := []struct {
		bucket consts.Bucket
		days   int
		status consts.LoanStatus
	}{
		{consts.BucketDPD1To30, 30, consts.StatusActive},
		{consts.BucketDPD31To60, 60, consts.StatusActive},
		{consts.BucketDPD61To90, 90, consts.StatusActive},
		{consts.BucketDPD90Plus, 120, consts.StatusActive},
		{consts.BucketDPD90Plus, 150, consts.StatusDefaulted},
	}
	for i, want := range expected {
		assert.Equal(t, string(want.bucket), facts[i].DPDBucket, "month %d", i+1)
		assert.Equal(t, want.days, facts[i].OverdueDays, "month %d", i+1)
		assert.Equal(t, string(want.status), facts[i].Status, "month %d", i+1)
		assert.Zero(t, facts[i].ActualPayment, "month %d", i+1)
	}

	// Balance never moves without payments; arrears only grow.
	for i := 1; i < len(facts); i++ {
		assert.Equal(t, facts[0].BalancePrincipal, facts[i].BalancePrincipal)
		assert.Greater(t, facts[i].OverdueInterest, facts[i-1].OverdueInterest)
	}
}

func TestStep_CureClearsArrearsAndReturnsToCurrent(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketCurrent] = policy.BucketProbabilities{}       // miss first month
		p.BaseProbabilities[consts.BucketDPD1To30] = policy.BucketProbabilities{Cure: 1}
	})
	model := NewTransitionModel(pol)

	facts := runMonths(t, testLoan(), model)
	require.GreaterOrEqual(t, len(facts), 2)

	first, second := facts[0], facts[1]
	assert.Equal(t, string(consts.BucketDPD1To30), first.DPDBucket)
	assert.Equal(t, 30, first.OverdueDays)

	assert.Equal(t, string(consts.StatusCured), second.Status)
	assert.Equal(t, string(consts.BucketCurrent), second.DPDBucket)
	assert.Zero(t, second.OverdueDays)
	assert.Zero(t, second.OverduePrincipal)
	assert.Zero(t, second.OverdueInterest)
	// The cure payment covers both months of obligations.
	assert.Greater(t, second.ActualPayment, second.ScheduledPayment)
}

func TestStep_SampledDefaultIn90PlusTerminatesImmediately(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		for _, bucket := range consts.Buckets {
			p.BaseProbabilities[bucket] = policy.BucketProbabilities{} // roll into arrears
		}
		p.BaseProbabilities[consts.BucketDPD90Plus] = policy.BucketProbabilities{Default: 1}
		p.DefaultGraceMonths = 12 // grace alone would not trigger
	})
	model := NewTransitionModel(pol)

	facts := runMonths(t, testLoan(), model)
	// Four months to reach 90+, the fifth samples default from within it.
	require.Len(t, facts, 5)
	assert.Equal(t, string(consts.StatusDefaulted), facts[4].Status)
}

func TestStep_EarlyRepaymentPaysOffInOneMonth(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.EarlyRepayProb = 1
	})
	model := NewTransitionModel(pol)

	facts := runMonths(t, testLoan(), model)
	require.Len(t, facts, 1)

	record := facts[0]
	assert.Equal(t, consts.ScenarioEarlyRepay, record.MigrationScenario)
	assert.Equal(t, string(consts.StatusPaidOff), record.Status)
	assert.Zero(t, record.BalancePrincipal)
	// First month interest on 120000 at 1.5% monthly plus the balance.
	assert.InDelta(t, 121800, record.ActualPayment, 0.01)
}

// delinquentAtTerm is a loan entering its final contractual month with
// part of its balance already billed as overdue.
func delinquentAtTerm() LoanState {
	state := NewLoanState(testLoan())
	state.MOB = 11
	state.BalancePrincipal = decimal.NewFromInt(20000)
	state.OverduePrincipal = decimal.NewFromInt(9000)
	state.OverdueInterest = decimal.NewFromInt(500)
	state.Bucket = consts.BucketDPD1To30
	state.OverdueDays = 30
	return state
}

func TestStep_FinalMonthBalloonCarriesArrearsWithoutPayment(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		for _, bucket := range consts.Buckets {
			p.BaseProbabilities[bucket] = policy.BucketProbabilities{} // always roll
		}
	})
	model := NewTransitionModel(pol)
	sched, err := BuildSchedule(decimal.NewFromInt(120000), decimal.NewFromInt(18), 12)
	require.NoError(t, err)

	next, record, err := Step(delinquentAtTerm(), StepInput{
		Macro:       neutralMacro(),
		Schedule:    sched,
		PeriodMonth: "2024-12",
		BatchID:     "batch-test",
	}, model, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	// The rest of the balance fell due and nothing was paid, so the
	// whole balance now sits in overdue principal.
	assert.Equal(t, 12, record.MOB)
	assert.Zero(t, record.ActualPayment)
	assert.True(t, next.OverduePrincipal.Equal(next.BalancePrincipal))
	assert.InDelta(t, 20000, record.OverduePrincipal, 0.001)
	// 500 carried plus 1.5% on the 20000 balance.
	assert.InDelta(t, 800, record.OverdueInterest, 0.001)
	assert.Equal(t, string(consts.StatusActive), record.Status)
}

func TestStep_CureInFinalMonthPaysOffExactly(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketDPD1To30] = policy.BucketProbabilities{Cure: 1}
	})
	model := NewTransitionModel(pol)
	sched, err := BuildSchedule(decimal.NewFromInt(120000), decimal.NewFromInt(18), 12)
	require.NoError(t, err)

	_, record, err := Step(delinquentAtTerm(), StepInput{
		Macro:       neutralMacro(),
		Schedule:    sched,
		PeriodMonth: "2024-12",
		BatchID:     "batch-test",
	}, model, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, string(consts.StatusPaidOff), record.Status)
	assert.Zero(t, record.BalancePrincipal)
	assert.Zero(t, record.OverduePrincipal)
	assert.Zero(t, record.OverdueInterest)
	// 500 overdue interest + 300 current interest + the 20000 balance.
	assert.InDelta(t, 20800, record.ActualPayment, 0.001)
}

func TestStep_TerminalStateRejectsFurtherSteps(t *testing.T) {
	model := NewTransitionModel(testPolicy(t, nil))
	sched, err := BuildSchedule(decimal.NewFromInt(120000), decimal.NewFromInt(18), 12)
	require.NoError(t, err)

	state := NewLoanState(testLoan())
	state.Status = consts.StatusDefaulted

	_, _, err = Step(state, StepInput{
		Macro:       neutralMacro(),
		Schedule:    sched,
		PeriodMonth: "2024-01",
		BatchID:     "batch-test",
	}, model, rand.New(rand.NewSource(1)))

	var invariantErr *InvariantViolationError
	require.ErrorAs(t, err, &invariantErr)
}

func TestMonthRand_IsDeterministicPerLoanMonthSeed(t *testing.T) {
	a := monthRand(42, 101, "2024-03")
	b := monthRand(42, 101, "2024-03")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}

	c := monthRand(42, 102, "2024-03")
	d := monthRand(43, 101, "2024-03")
	base := monthRand(42, 101, "2024-03")
	assert.NotEqual(t, base.Float64(), c.Float64())
	base = monthRand(42, 101, "2024-03")
	assert.NotEqual(t, base.Float64(), d.Float64())
}
