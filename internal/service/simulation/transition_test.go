package simulation

import (
	"math/rand"
	"testing"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/policy"
	"credit-sim-worker/internal/pkg/store/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy builds a minimal valid collections policy; mutate tweaks
// it before validation.
func testPolicy(t *testing.T, mutate func(*policy.CollectionsPolicy)) *policy.CollectionsPolicy {
	t.Helper()
	pol := &policy.CollectionsPolicy{
		DPDThresholds: map[consts.Bucket]int{
			consts.BucketDPD1To30:  30,
			consts.BucketDPD31To60: 60,
			consts.BucketDPD61To90: 90,
		},
		BaseProbabilities: map[consts.Bucket]policy.BucketProbabilities{
			consts.BucketCurrent:   {FullPay: 1},
			consts.BucketDPD1To30:  {FullPay: 1},
			consts.BucketDPD31To60: {FullPay: 1},
			consts.BucketDPD61To90: {FullPay: 1},
			consts.BucketDPD90Plus: {FullPay: 1},
		},
		PartialFractions:   map[consts.Bucket][]float64{},
		DefaultGraceMonths: 3,
		CurePriority:       policy.PriorityDefaultFirst,
	}
	if mutate != nil {
		mutate(pol)
	}
	require.NoError(t, pol.Validate())
	return pol
}

func neutralMacro() models.MacroSnapshot {
	return models.MacroSnapshot{YearMonth: "2024-01"}
}

func TestProbabilities_NeutralMacroReturnsBaseValues(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketDPD1To30] = policy.BucketProbabilities{FullPay: 0.2, Cure: 0.3, Default: 0.1}
	})
	model := NewTransitionModel(pol)

	probs, err := model.Probabilities(consts.BucketDPD1To30, neutralMacro())
	require.NoError(t, err)

	assert.InDelta(t, 0.2, probs.FullPay, 1e-12)
	assert.InDelta(t, 0.3, probs.Cure, 1e-12)
	assert.InDelta(t, 0.1, probs.Default, 1e-12)
	assert.InDelta(t, 0.4, probs.Roll, 1e-12)
}

func TestProbabilities_CurrentBucketCannotCure(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketCurrent] = policy.BucketProbabilities{FullPay: 0.5, Cure: 0.4, Default: 0}
	})
	model := NewTransitionModel(pol)

	probs, err := model.Probabilities(consts.BucketCurrent, neutralMacro())
	require.NoError(t, err)

	assert.Zero(t, probs.Cure)
	assert.InDelta(t, 0.5, probs.Roll, 1e-12)
}

func TestProbabilities_AdverseMacroRaisesDefault(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketDPD61To90] = policy.BucketProbabilities{FullPay: 0.1, Cure: 0.1, Default: 0.2}
		p.MacroSensitivity = policy.MacroSensitivity{
			PolicyRateCoef:       0.05,
			UnemploymentCoef:     0.1,
			BaselinePolicyRate:   8,
			BaselineUnemployment: 5,
		}
	})
	model := NewTransitionModel(pol)

	adverse := models.MacroSnapshot{PolicyRate: 12, UnemploymentRate: 9}
	probs, err := model.Probabilities(consts.BucketDPD61To90, adverse)
	require.NoError(t, err)

	// adjustment = 1 + 0.05*4 + 0.1*4 = 1.6
	assert.InDelta(t, 0.32, probs.Default, 1e-12)
}

func TestProbabilities_FavorableMacroClampsAtZero(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketDPD1To30] = policy.BucketProbabilities{FullPay: 0.5, Cure: 0.2, Default: 0.2}
		p.MacroSensitivity = policy.MacroSensitivity{
			UnemploymentCoef:     0.5,
			BaselineUnemployment: 10,
		}
	})
	model := NewTransitionModel(pol)

	favorable := models.MacroSnapshot{UnemploymentRate: 4}
	probs, err := model.Probabilities(consts.BucketDPD1To30, favorable)
	require.NoError(t, err)

	assert.Zero(t, probs.Default)
}

func TestProbabilities_RenormalizesWhenMassExceedsOne(t *testing.T) {
	pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
		p.BaseProbabilities[consts.BucketDPD90Plus] = policy.BucketProbabilities{FullPay: 0.2, Cure: 0.4, Default: 0.4}
		p.MacroSensitivity = policy.MacroSensitivity{
			UnemploymentCoef:     1,
			BaselineUnemployment: 0,
		}
	})
	model := NewTransitionModel(pol)

	// adjustment = 2 pushes default to 0.8; total mass 1.4 renormalizes.
	probs, err := model.Probabilities(consts.BucketDPD90Plus, models.MacroSnapshot{UnemploymentRate: 1})
	require.NoError(t, err)

	total := probs.FullPay + probs.Cure + probs.Default + probs.Roll
	assert.InDelta(t, 1, total, 1e-12)
	assert.Zero(t, probs.Roll)
	assert.InDelta(t, 0.8/1.4, probs.Default, 1e-12)
}

func TestSample_DegenerateMassesAreDeterministic(t *testing.T) {
	cases := []struct {
		name     string
		bucket   consts.Bucket
		probs    policy.BucketProbabilities
		expected Outcome
	}{
		{"always full pay", consts.BucketCurrent, policy.BucketProbabilities{FullPay: 1}, OutcomeFullPay},
		{"always cure when delinquent", consts.BucketDPD31To60, policy.BucketProbabilities{Cure: 1}, OutcomeCure},
		{"always default", consts.BucketDPD90Plus, policy.BucketProbabilities{Default: 1}, OutcomeDefault},
		{"no mass rolls", consts.BucketDPD1To30, policy.BucketProbabilities{}, OutcomeRoll},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
				p.BaseProbabilities[tc.bucket] = tc.probs
			})
			model := NewTransitionModel(pol)

			for seed := int64(0); seed < 20; seed++ {
				outcome, err := model.Sample(rand.New(rand.NewSource(seed)), tc.bucket, neutralMacro())
				require.NoError(t, err)
				assert.Equal(t, tc.expected, outcome)
			}
		})
	}
}

func TestSample_CurePriorityResolvesOverlappingMass(t *testing.T) {
	build := func(priority string) *TransitionModel {
		pol := testPolicy(t, func(p *policy.CollectionsPolicy) {
			p.BaseProbabilities[consts.BucketDPD90Plus] = policy.BucketProbabilities{Cure: 0.5, Default: 0.25}
			p.MacroSensitivity = policy.MacroSensitivity{UnemploymentCoef: 1}
			p.CurePriority = priority
		})
		return NewTransitionModel(pol)
	}
	defaultFirst := build(policy.PriorityDefaultFirst)
	cureFirst := build(policy.PriorityCureFirst)

	// Unemployment one point over baseline doubles default mass to 0.5,
	// splitting the draw between cure and default only.
	adverse := models.MacroSnapshot{UnemploymentRate: 1}

	// With the same draw, the two priorities partition the overlapping
	// mass into complementary halves.
	for seed := int64(0); seed < 50; seed++ {
		a, err := defaultFirst.Sample(rand.New(rand.NewSource(seed)), consts.BucketDPD90Plus, adverse)
		require.NoError(t, err)
		b, err := cureFirst.Sample(rand.New(rand.NewSource(seed)), consts.BucketDPD90Plus, adverse)
		require.NoError(t, err)

		assert.Contains(t, []Outcome{OutcomeCure, OutcomeDefault}, a)
		assert.Contains(t, []Outcome{OutcomeCure, OutcomeDefault}, b)
		assert.NotEqual(t, a, b)
	}
}

func TestSample_MissingBucketFailsFast(t *testing.T) {
	pol := testPolicy(t, nil)
	delete(pol.BaseProbabilities, consts.BucketDPD61To90)
	model := NewTransitionModel(pol)

	_, err := model.Sample(rand.New(rand.NewSource(1)), consts.BucketDPD61To90, neutralMacro())
	assert.ErrorContains(t, err, "missing parameters")
}
