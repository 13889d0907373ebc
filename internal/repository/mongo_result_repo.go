package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"career-guide/internal/domain"
)

// MongoResultRepository guarda cada resultado como un documento en quiz_results.
type MongoResultRepository struct {
	results *mongo.Collection
}

func NewMongoResultRepository(db *mongo.Database) *MongoResultRepository {
	return &MongoResultRepository{results: db.Collection("quiz_results")}
}

// EnsureIndexes crea el indice por usuario y fecha.
func (r *MongoResultRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *MongoResultRepository) Create(ctx context.Context, result domain.QuizResult) error {
	_, err := r.results.InsertOne(ctx, result)
	return err
}

func (r *MongoResultRepository) GetByID(ctx context.Context, id string) (domain.QuizResult, error) {
	var result domain.QuizResult
	err := r.results.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.QuizResult{}, ErrNotFound
	}
	if err != nil {
		return domain.QuizResult{}, err
	}
	return result, nil
}

func (r *MongoResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.results.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []domain.QuizResult{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
