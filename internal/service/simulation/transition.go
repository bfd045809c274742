package simulation

import (
	"math/rand"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/policy"
	"credit-sim-worker/internal/pkg/store/models"
)

// Outcome is the sampled monthly payment behavior of a loan.
type Outcome int

const (
	OutcomeFullPay Outcome = iota
	OutcomeCure
	OutcomeDefault
	OutcomeRoll
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFullPay:
		return "full_pay"
	case OutcomeCure:
		return "cure"
	case OutcomeDefault:
		return "default"
	case OutcomeRoll:
		return "roll"
	default:
		return "unknown"
	}
}

// OutcomeProbabilities are the effective per-outcome probabilities for
// one loan-month after macro adjustment. They sum to 1.
type OutcomeProbabilities struct {
	FullPay float64
	Cure    float64
	Default float64
	Roll    float64
}

// TransitionModel turns base policy probabilities and a macro snapshot
// into effective outcome probabilities and samples outcomes from them.
type TransitionModel struct {
	policy *policy.CollectionsPolicy
}

func NewTransitionModel(pol *policy.CollectionsPolicy) *TransitionModel {
	return &TransitionModel{policy: pol}
}

// Policy exposes the underlying collections policy.
func (m *TransitionModel) Policy() *policy.CollectionsPolicy {
	return m.policy
}

// Probabilities computes effective outcome probabilities for a bucket
// under the given macro regime. The default probability scales with
// macro deviation from baseline; cure is only available to delinquent
// loans; roll absorbs the remainder.
func (m *TransitionModel) Probabilities(bucket consts.Bucket, macro models.MacroSnapshot) (OutcomeProbabilities, error) {
	base, err := m.policy.Probabilities(bucket)
	if err != nil {
		return OutcomeProbabilities{}, err
	}

	sens := m.policy.MacroSensitivity
	adjustment := 1 +
		sens.PolicyRateCoef*(macro.PolicyRate-sens.BaselinePolicyRate) +
		sens.UnemploymentCoef*(macro.UnemploymentRate-sens.BaselineUnemployment)
	if adjustment < 0 {
		adjustment = 0
	}

	pFull := clamp01(base.FullPay)
	pCure := clamp01(base.Cure)
	pDefault := clamp01(base.Default * adjustment)
	if !bucket.Delinquent() {
		pCure = 0
	}

	total := pFull + pCure + pDefault
	if total > 1 {
		pFull /= total
		pCure /= total
		pDefault /= total
		total = 1
	}

	return OutcomeProbabilities{
		FullPay: pFull,
		Cure:    pCure,
		Default: pDefault,
		Roll:    1 - total,
	}, nil
}

// Sample draws one outcome. The segments of the uniform draw are laid
// out in cure-priority order so overlapping cure/default mass resolves
// deterministically per the configured tie-break.
func (m *TransitionModel) Sample(rng *rand.Rand, bucket consts.Bucket, macro models.MacroSnapshot) (Outcome, error) {
	probs, err := m.Probabilities(bucket, macro)
	if err != nil {
		return OutcomeRoll, err
	}

	u := rng.Float64()
	acc := 0.0
	for _, outcome := range m.samplingOrder() {
		acc += probs.of(outcome)
		if u < acc {
			return outcome, nil
		}
	}
	return OutcomeRoll, nil
}

func (m *TransitionModel) samplingOrder() []Outcome {
	if m.policy.CurePriority == policy.PriorityCureFirst {
		return []Outcome{OutcomeCure, OutcomeDefault, OutcomeFullPay, OutcomeRoll}
	}
	return []Outcome{OutcomeDefault, OutcomeCure, OutcomeFullPay, OutcomeRoll}
}

func (p OutcomeProbabilities) of(outcome Outcome) float64 {
	switch outcome {
	case OutcomeFullPay:
		return p.FullPay
	case OutcomeCure:
		return p.Cure
	case OutcomeDefault:
		return p.Default
	default:
		return p.Roll
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
