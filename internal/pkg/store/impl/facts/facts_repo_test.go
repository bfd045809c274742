package facts

import (
	"context"
	"errors"
	"testing"

	"credit-sim-worker/internal/pkg/store/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockFactCollection struct {
	mock.Mock
}

func (m *MockFactCollection) BulkWrite(ctx context.Context, writeModels []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	args := m.Called(ctx, writeModels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.BulkWriteResult), args.Error(1)
}

func (m *MockFactCollection) EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	args := m.Called(ctx, indexes)
	return args.Error(0)
}

func sampleFacts() []models.MonthlyFactRecord {
	return []models.MonthlyFactRecord{
		{LoanID: 1, PeriodMonth: "2014-01", MOB: 1, BatchID: "batch-a"},
		{LoanID: 1, PeriodMonth: "2014-02", MOB: 2, BatchID: "batch-a"},
	}
}

func TestBulkUpsert_BuildsUpsertModelsPerUniqueKey(t *testing.T) {
	mockColl := new(MockFactCollection)
	repo := NewFactHistoryRepositoryWithInterface(mockColl)

	var captured []mongo.WriteModel
	mockColl.On("BulkWrite", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]mongo.WriteModel)
		}).
		Return(&mongo.BulkWriteResult{UpsertedCount: 2}, nil)

	applied, err := repo.BulkUpsert(context.Background(), sampleFacts())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	require.Len(t, captured, 2)

	first, ok := captured[0].(*mongo.ReplaceOneModel)
	require.True(t, ok)
	assert.True(t, *first.Upsert)
	assert.Equal(t, bson.M{
		"loan_id":      int64(1),
		"period_month": "2014-01",
		"batch_id":     "batch-a",
	}, first.Filter)
}

func TestBulkUpsert_RerunCountsMatchedAsApplied(t *testing.T) {
	mockColl := new(MockFactCollection)
	repo := NewFactHistoryRepositoryWithInterface(mockColl)

	mockColl.On("BulkWrite", mock.Anything, mock.Anything).
		Return(&mongo.BulkWriteResult{MatchedCount: 2}, nil)

	applied, err := repo.BulkUpsert(context.Background(), sampleFacts())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
}

func TestBulkUpsert_EmptyBatchIsNoop(t *testing.T) {
	mockColl := new(MockFactCollection)
	repo := NewFactHistoryRepositoryWithInterface(mockColl)

	applied, err := repo.BulkUpsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, applied)
	mockColl.AssertNotCalled(t, "BulkWrite")
}

func TestBulkUpsert_PropagatesWriteError(t *testing.T) {
	mockColl := new(MockFactCollection)
	repo := NewFactHistoryRepositoryWithInterface(mockColl)

	mockColl.On("BulkWrite", mock.Anything, mock.Anything).
		Return(nil, errors.New("write failed"))

	_, err := repo.BulkUpsert(context.Background(), sampleFacts())
	assert.ErrorContains(t, err, "write failed")
}

func TestEnsureIndexes_DeclaresUniquenessKey(t *testing.T) {
	mockColl := new(MockFactCollection)
	repo := NewFactHistoryRepositoryWithInterface(mockColl)

	var captured []mongo.IndexModel
	mockColl.On("EnsureIndexes", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]mongo.IndexModel)
		}).
		Return(nil)

	require.NoError(t, repo.EnsureIndexes(context.Background()))
	require.Len(t, captured, 3)
	assert.True(t, *captured[0].Options.Unique)
}
