package repository

import (
	"context"
	"errors"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type StudentRepository struct {
	mongoRepo
}

func NewStudentRepository(db *mongo.Database, timeout time.Duration) *StudentRepository {
	return &StudentRepository{mongoRepo: newMongoRepo(db, CollStudents, timeout)}
}

// FindByID id 为 24 位十六进制 ObjectID
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var st model.Student
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
