package simulation

import (
	"errors"
	"fmt"

	"credit-sim-worker/internal/pkg/log_messages"
)

// Error classes stamped on skipped loans in the batch summary.
const (
	ErrClassConfig     = "config_error"
	ErrClassInvariant  = "invariant_violation"
	ErrClassSimulation = "simulation_error"
)

var (
	ErrBatchAlreadyRunning = errors.New(log_messages.BatchAlreadyRunning)
	ErrEmptyPortfolio      = errors.New(log_messages.BatchEmptyPortfolio)
	ErrEmptyMacroTimeline  = errors.New(log_messages.BatchEmptyMacroTimeline)
)

// ConfigError marks per-loan failures caused by missing or inconsistent
// inputs, such as an absent macro snapshot for a simulated month.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// InvariantViolationError is raised when a state update would break a
// balance invariant. The loan is dropped from the batch; facts already
// produced for it remain valid.
type InvariantViolationError struct {
	LoanID int64
	MOB    int
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation on loan %d at mob %d: %s", e.LoanID, e.MOB, e.Reason)
}

// ClassifyError maps a per-loan error to its summary error class.
func ClassifyError(err error) string {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ErrClassConfig
	}
	var invariantErr *InvariantViolationError
	if errors.As(err, &invariantErr) {
		return ErrClassInvariant
	}
	return ErrClassSimulation
}
