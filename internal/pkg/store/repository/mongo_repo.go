package repository

import (
	"context"

	"credit-sim-worker/internal/service/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository[T any] struct {
	collection interfaces.MongoCollectionInterface
}

func NewMongoRepository[T any](collection interfaces.MongoCollectionInterface) *MongoRepository[T] {
	return &MongoRepository[T]{collection: collection}
}

func (r *MongoRepository[T]) Create(ctx context.Context, document interface{}) (*mongo.InsertOneResult, error) {
	if result, err := r.collection.InsertOne(ctx, document); err != nil {
		return nil, err
	} else {
		return result, nil
	}
}

// Read a document by filter
func (r *MongoRepository[T]) FindOne(ctx context.Context, filter interface{}, opt *options.FindOneOptions) (T, error) {
	var result T

	if err := r.collection.FindOne(ctx, filter, opt).Decode(&result); err != nil {
		return result, err
	}

	return result, nil
}

func (r *MongoRepository[T]) Find(ctx context.Context, filter interface{}) ([]T, error) {
	if cursor, err := r.collection.Find(ctx, filter); err != nil {
		return nil, err
	} else {
		defer func() {
			if err := cursor.Close(ctx); err != nil {
				_ = err
			}
		}()

		var results []T
		for cursor.Next(ctx) {
			var entity T
			if err := cursor.Decode(&entity); err != nil {
				return nil, err
			}
			results = append(results, entity)
		}
		return results, cursor.Err()
	}
}

func (r *MongoRepository[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	if count, err := r.collection.CountDocuments(ctx, filter); err != nil {
		return 0, err
	} else {
		return count, nil
	}
}

// BulkWrite runs an unordered bulk write so one failed model does not
// short-circuit the rest of the batch.
func (r *MongoRepository[T]) BulkWrite(ctx context.Context, writeModels []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	if result, err := r.collection.BulkWrite(ctx, writeModels, options.BulkWrite().SetOrdered(false)); err != nil {
		return nil, err
	} else {
		return result, nil
	}
}

// EnsureIndexes creates the given indexes, a no-op when they already exist.
func (r *MongoRepository[T]) EnsureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
