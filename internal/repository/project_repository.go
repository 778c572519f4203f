package repository

import (
	"context"
	"smart_lms_analytics/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProjectRepository struct {
	mongoRepo
}

func NewProjectRepository(db *mongo.Database, timeout time.Duration) *ProjectRepository {
	return &ProjectRepository{mongoRepo: newMongoRepo(db, CollProjects, timeout)}
}

func (r *ProjectRepository) FindByCourseIDs(ctx context.Context, courseIDs []string) ([]model.Project, error) {
	projects := []model.Project{}
	if len(courseIDs) == 0 {
		return projects, nil
	}
	if err := r.findAll(ctx, bson.M{"courseId": inStrings(courseIDs)}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
