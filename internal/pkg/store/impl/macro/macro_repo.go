package macro

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
)

// MacroTimelineRepository reads the per-month macro snapshots into the
// in-memory lookup table the simulation reads concurrently.
type MacroTimelineRepository struct {
	repo interfaces.MacroStoreInterface
}

func NewMacroTimelineRepository(client *mongodb.MongoClient) *MacroTimelineRepository {
	collection := client.Database.Collection(consts.MacroParamsCollection)
	return &MacroTimelineRepository{repo: repository.NewMongoRepository[models.MacroSnapshot](collection)}
}

func NewMacroTimelineRepositoryWithInterface(repo interfaces.MacroStoreInterface) *MacroTimelineRepository {
	return &MacroTimelineRepository{repo: repo}
}

// GetTimeline returns the whole macro timeline keyed by YYYY-MM.
func (mr *MacroTimelineRepository) GetTimeline(ctx context.Context) (map[string]models.MacroSnapshot, error) {
	snapshots, err := mr.repo.Find(ctx, bson.M{})
	if err != nil {
		logger.CtxError(ctx, "Error fetching macro timeline", err)
		return nil, err
	}

	timeline := make(map[string]models.MacroSnapshot, len(snapshots))
	for _, snapshot := range snapshots {
		timeline[snapshot.YearMonth] = snapshot
	}

	logger.CtxDebug(ctx, "Fetched macro timeline", slog.Int("months", len(timeline)))
	return timeline, nil
}
