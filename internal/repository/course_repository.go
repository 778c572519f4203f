package repository

import (
	"context"
	"smart_lms_analytics/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type CourseRepository struct {
	mongoRepo
}

func NewCourseRepository(db *mongo.Database, timeout time.Duration) *CourseRepository {
	return &CourseRepository{mongoRepo: newMongoRepo(db, CollCourses, timeout)}
}

// FindForStudent specializations 数组包含该专业即匹配
func (r *CourseRepository) FindForStudent(ctx context.Context, year, semester int, specialization string, activeOnly bool) ([]model.Course, error) {
	filter := bson.M{
		"year":            year,
		"semester":        semester,
		"specializations": specialization,
	}
	if activeOnly {
		filter["isArchived"] = false
	}

	courses := []model.Course{}
	if err := r.findAll(ctx, filter, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
