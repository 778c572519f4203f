package repository

import (
	"context"
	"smart_lms_analytics/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PredictionRepository LMS 写入的历史预测
type PredictionRepository struct {
	mongoRepo
}

func NewPredictionRepository(db *mongo.Database, timeout time.Duration) *PredictionRepository {
	return &PredictionRepository{mongoRepo: newMongoRepo(db, CollPredictions, timeout)}
}

// Recent studentId 可能以字符串或 ObjectID 存储，两种都匹配
func (r *PredictionRepository) Recent(ctx context.Context, studentID string, limit int) ([]model.StoredPrediction, error) {
	ids := bson.A{studentID}
	if oid, err := primitive.ObjectIDFromHex(studentID); err == nil {
		ids = append(ids, oid)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	predictions := []model.StoredPrediction{}
	if err := r.findAll(ctx, bson.M{"studentId": bson.M{"$in": ids}}, &predictions, opts); err != nil {
		return nil, err
	}
	return predictions, nil
}
