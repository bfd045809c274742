package interfaces

import (
	"context"

	"credit-sim-worker/internal/pkg/store/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// LoanStoreInterface is the generic-repository surface the loan
// portfolio repository uses.
type LoanStoreInterface interface {
	Find(ctx context.Context, filter interface{}) ([]models.Loan, error)
}

// MacroStoreInterface is the generic-repository surface the macro
// timeline repository uses.
type MacroStoreInterface interface {
	Find(ctx context.Context, filter interface{}) ([]models.MacroSnapshot, error)
}

// FactCollectionInterface is the generic-repository surface the fact
// store repository uses.
type FactCollectionInterface interface {
	BulkWrite(ctx context.Context, writeModels []mongo.WriteModel) (*mongo.BulkWriteResult, error)
	EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) error
}
