package repository

import (
	"context"
	"smart_lms_analytics/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProgressRepository 项目进度与任务进度分属两个集合
type ProgressRepository struct {
	projects mongoRepo
	tasks    mongoRepo
}

func NewProgressRepository(db *mongo.Database, timeout time.Duration) *ProgressRepository {
	return &ProgressRepository{
		projects: newMongoRepo(db, CollProjectProgress, timeout),
		tasks:    newMongoRepo(db, CollTaskProgress, timeout),
	}
}

func (r *ProgressRepository) ProjectProgress(ctx context.Context, studentID string, projectIDs []string) ([]model.Progress, error) {
	return r.find(ctx, r.projects, bson.M{"studentId": studentID, "projectId": inStrings(projectIDs)})
}

func (r *ProgressRepository) TaskProgress(ctx context.Context, studentID string, taskIDs []string) ([]model.Progress, error) {
	return r.find(ctx, r.tasks, bson.M{"studentId": studentID, "taskId": inStrings(taskIDs)})
}

func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Progress, error) {
	filter := bson.M{"studentId": studentID}
	projects, err := r.find(ctx, r.projects, filter)
	if err != nil {
		return nil, err
	}
	tasks, err := r.find(ctx, r.tasks, filter)
	if err != nil {
		return nil, err
	}
	return append(projects, tasks...), nil
}

func (r *ProgressRepository) find(ctx context.Context, repo mongoRepo, filter bson.M) ([]model.Progress, error) {
	progress := []model.Progress{}
	if err := repo.findAll(ctx, filter, &progress); err != nil {
		return nil, err
	}
	return progress, nil
}
