package loans

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

// LoanPortfolioRepository reads the issued-loan population for a batch.
type LoanPortfolioRepository struct {
	repo interfaces.LoanStoreInterface
}

func NewLoanPortfolioRepository(client *mongodb.MongoClient) *LoanPortfolioRepository {
	collection := client.Database.Collection(consts.LoanIssueCollection)
	return &LoanPortfolioRepository{repo: repository.NewMongoRepository[models.Loan](collection)}
}

func NewLoanPortfolioRepositoryWithInterface(repo interfaces.LoanStoreInterface) *LoanPortfolioRepository {
	return &LoanPortfolioRepository{repo: repo}
}

// GetPortfolio returns every loan record. The portfolio is supplied in
// full before a batch starts; there is no pagination requirement.
func (lr *LoanPortfolioRepository) GetPortfolio(ctx context.Context) ([]models.Loan, error) {
	loans, err := lr.repo.Find(ctx, bson.M{})
	if err != nil {
		logger.CtxError(ctx, "Error fetching loan portfolio", err)
		return nil, err
	}

	logger.CtxDebug(ctx, "Fetched loan portfolio", slog.Int("count", len(loans)))
	return loans, nil
}
