package repository

import (
	"context"
	"smart_lms_analytics/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TaskRepository struct {
	mongoRepo
}

func NewTaskRepository(db *mongo.Database, timeout time.Duration) *TaskRepository {
	return &TaskRepository{mongoRepo: newMongoRepo(db, CollTasks, timeout)}
}

func (r *TaskRepository) FindByCourseIDs(ctx context.Context, courseIDs []string) ([]model.Task, error) {
	tasks := []model.Task{}
	if len(courseIDs) == 0 {
		return tasks, nil
	}
	if err := r.findAll(ctx, bson.M{"courseId": inStrings(courseIDs)}, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
