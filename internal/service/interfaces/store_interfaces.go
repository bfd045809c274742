package interfaces

import (
	"context"

	"credit-sim-worker/internal/pkg/store/models"
)

// LoanPortfolioRepoInterface supplies the immutable loan population a
// batch simulates over.
type LoanPortfolioRepoInterface interface {
	GetPortfolio(ctx context.Context) ([]models.Loan, error)
}

// MacroTimelineRepoInterface supplies macro snapshots keyed by
// calendar month (YYYY-MM).
type MacroTimelineRepoInterface interface {
	GetTimeline(ctx context.Context) (map[string]models.MacroSnapshot, error)
}

// FactStoreInterface is the only writer surface for fact records.
type FactStoreInterface interface {
	EnsureIndexes(ctx context.Context) error
	BulkUpsert(ctx context.Context, facts []models.MonthlyFactRecord) (int, error)
}

// BatchLockInterface guards against concurrent runs of one batch id.
type BatchLockInterface interface {
	Acquire(ctx context.Context, batchID string) (bool, error)
	Release(ctx context.Context, batchID string) error
}
