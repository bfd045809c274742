package policy

import (
	"fmt"
	"os"
	"sort"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/log_messages"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Cure/default tie-break priorities.
const (
	PriorityDefaultFirst = "default_first"
	PriorityCureFirst    = "cure_first"
)

// BucketProbabilities are the base per-bucket outcome probabilities of
// the collections policy, before macro adjustment.
type BucketProbabilities struct {
	FullPay float64 `yaml:"full_pay" validate:"gte=0,lte=1"`
	Cure    float64 `yaml:"cure" validate:"gte=0,lte=1"`
	Default float64 `yaml:"default" validate:"gte=0,lte=1"`
}

// MacroSensitivity perturbs the base default probability by the
// deviation of the macro snapshot from configured baselines.
type MacroSensitivity struct {
	PolicyRateCoef       float64 `yaml:"policy_rate_coef"`
	UnemploymentCoef     float64 `yaml:"unemployment_coef"`
	BaselinePolicyRate   float64 `yaml:"baseline_policy_rate"`
	BaselineUnemployment float64 `yaml:"baseline_unemployment"`
}

// CollectionsPolicy is the validated, strongly typed collections
// configuration resolved once at batch start. Missing bucket entries
// fail at load time, never silently default.
type CollectionsPolicy struct {
	DPDThresholds      map[consts.Bucket]int                       `yaml:"dpd_thresholds" validate:"required"`
	BaseProbabilities  map[consts.Bucket]BucketProbabilities       `yaml:"base_probabilities" validate:"required,dive"`
	PartialFractions   map[consts.Bucket][]float64                 `yaml:"partial_fractions"`
	MacroSensitivity   MacroSensitivity                            `yaml:"macro_sensitivity"`
	DefaultGraceMonths int                                         `yaml:"default_grace_months" validate:"gte=0"`
	CurePriority       string                                      `yaml:"cure_priority" validate:"oneof=default_first cure_first"`
	EarlyRepayProb     float64                                     `yaml:"early_repay_prob" validate:"gte=0,lte=1"`
}

// Load reads and validates a collections policy file.
func Load(path string) (*CollectionsPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var pol CollectionsPolicy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy file %s: %w", path, err)
	}

	if err := pol.Validate(); err != nil {
		return nil, err
	}
	return &pol, nil
}

// Validate checks structural constraints and bucket completeness.
func (p *CollectionsPolicy) Validate() error {
	if p.CurePriority == "" {
		p.CurePriority = PriorityDefaultFirst
	}

	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("collections policy validation failed: %w", err)
	}

	for _, bucket := range consts.Buckets {
		probs, ok := p.BaseProbabilities[bucket]
		if !ok {
			return fmt.Errorf(log_messages.MissingBucketParameters, bucket, "base_probabilities")
		}
		if probs.FullPay+probs.Cure+probs.Default > 1 {
			return fmt.Errorf("base probabilities for bucket %q sum above 1", bucket)
		}
	}

	// Thresholds cover the finite buckets; 90+ is open-ended.
	for _, bucket := range []consts.Bucket{consts.BucketDPD1To30, consts.BucketDPD31To60, consts.BucketDPD61To90} {
		if _, ok := p.DPDThresholds[bucket]; !ok {
			return fmt.Errorf(log_messages.MissingBucketParameters, bucket, "dpd_thresholds")
		}
	}
	thresholds := p.sortedThresholds()
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i].days <= thresholds[i-1].days {
			return fmt.Errorf("dpd_thresholds must be strictly increasing by bucket severity")
		}
	}

	for bucket, fractions := range p.PartialFractions {
		if bucket.Severity() < 0 {
			return fmt.Errorf("partial_fractions references unknown bucket %q", bucket)
		}
		if len(fractions) != 4 {
			return fmt.Errorf("partial_fractions for bucket %q must have 4 elements, got %d", bucket, len(fractions))
		}
		for _, f := range fractions {
			if f < 0 || f > 1 {
				return fmt.Errorf("partial_fractions for bucket %q must be within [0, 1]", bucket)
			}
		}
	}

	return nil
}

// Probabilities returns the base probabilities for a bucket. The
// policy is validated at load, so a miss here is a programming error.
func (p *CollectionsPolicy) Probabilities(bucket consts.Bucket) (BucketProbabilities, error) {
	probs, ok := p.BaseProbabilities[bucket]
	if !ok {
		return BucketProbabilities{}, fmt.Errorf(log_messages.MissingBucketParameters, bucket, "base_probabilities")
	}
	return probs, nil
}

// Fractions returns the partial-payment fractions for a bucket in
// waterfall tier order, defaulting to no payment when unconfigured.
func (p *CollectionsPolicy) Fractions(bucket consts.Bucket) [4]float64 {
	var out [4]float64
	if fractions, ok := p.PartialFractions[bucket]; ok && len(fractions) == 4 {
		copy(out[:], fractions)
	}
	return out
}

type thresholdEntry struct {
	bucket consts.Bucket
	days   int
}

func (p *CollectionsPolicy) sortedThresholds() []thresholdEntry {
	entries := make([]thresholdEntry, 0, len(p.DPDThresholds))
	for bucket, days := range p.DPDThresholds {
		entries = append(entries, thresholdEntry{bucket: bucket, days: days})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].bucket.Severity() < entries[j].bucket.Severity()
	})
	return entries
}

// BucketForOverdueDays maps accumulated overdue days onto a bucket.
// Zero days is Current; days beyond the last threshold land in 90+.
func (p *CollectionsPolicy) BucketForOverdueDays(days int) consts.Bucket {
	if days <= 0 {
		return consts.BucketCurrent
	}
	for _, entry := range p.sortedThresholds() {
		if days <= entry.days {
			return entry.bucket
		}
	}
	return consts.BucketDPD90Plus
}
