package facts

import (
	"context"
	"log/slog"

	"credit-sim-worker/internal/pkg/consts"
	mongodb "credit-sim-worker/internal/pkg/db/mongo"
	"credit-sim-worker/internal/pkg/logger"
	"credit-sim-worker/internal/pkg/store/models"
	"credit-sim-worker/internal/pkg/store/repository"
	"credit-sim-worker/internal/service/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FactHistoryRepository is the single writer of the fact table.
// Records are upserted by (loan_id, period_month, batch_id) so a
// re-run of the same batch id cannot duplicate rows.
type FactHistoryRepository struct {
	repo interfaces.FactCollectionInterface
}

func NewFactHistoryRepository(client *mongodb.MongoClient) *FactHistoryRepository {
	collection := client.Database.Collection(consts.CreditFactCollection)
	return &FactHistoryRepository{repo: repository.NewMongoRepository[models.MonthlyFactRecord](collection)}
}

func NewFactHistoryRepositoryWithInterface(repo interfaces.FactCollectionInterface) *FactHistoryRepository {
	return &FactHistoryRepository{repo: repo}
}

// EnsureIndexes creates the uniqueness key plus the lookup indexes the
// aggregation layer reads by.
func (fr *FactHistoryRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "loan_id", Value: 1},
				{Key: "period_month", Value: 1},
				{Key: "batch_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_loan_period_batch"),
		},
		{
			Keys:    bson.D{{Key: "loan_id", Value: 1}},
			Options: options.Index().SetName("idx_fact_loan"),
		},
		{
			Keys:    bson.D{{Key: "period_month", Value: 1}},
			Options: options.Index().SetName("idx_fact_month"),
		},
	}

	if err := fr.repo.EnsureIndexes(ctx, indexes); err != nil {
		logger.CtxError(ctx, "Error ensuring fact history indexes", err)
		return err
	}
	return nil
}

// BulkUpsert writes a batch of fact records idempotently and returns
// the number of records applied.
func (fr *FactHistoryRepository) BulkUpsert(ctx context.Context, records []models.MonthlyFactRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	writeModels := make([]mongo.WriteModel, 0, len(records))
	for _, record := range records {
		filter := bson.M{
			"loan_id":      record.LoanID,
			"period_month": record.PeriodMonth,
			"batch_id":     record.BatchID,
		}
		writeModels = append(writeModels,
			mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(record).SetUpsert(true))
	}

	result, err := fr.repo.BulkWrite(ctx, writeModels)
	if err != nil {
		logger.CtxError(ctx, "Error bulk upserting fact records", err, slog.Int("count", len(records)))
		return 0, err
	}

	applied := int(result.UpsertedCount + result.MatchedCount)
	logger.CtxDebug(ctx, "Bulk upserted fact records",
		slog.Int("sent", len(records)),
		slog.Int64("upserted", result.UpsertedCount),
		slog.Int64("matched", result.MatchedCount),
	)
	return applied, nil
}
