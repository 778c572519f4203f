package service

import (
	"context"
	"smart_lms_analytics/internal/model"
)

// 服务层依赖的只读仓库接口，实现在 repository 包

type StudentRepository interface {
	// FindByID 不存在时返回 util.ErrStudentNotFound
	FindByID(ctx context.Context, id string) (*model.Student, error)
}

type CourseRepository interface {
	FindForStudent(ctx context.Context, year, semester int, specialization string, activeOnly bool) ([]model.Course, error)
}

type ProjectRepository interface {
	FindByCourseIDs(ctx context.Context, courseIDs []string) ([]model.Project, error)
}

type TaskRepository interface {
	FindByCourseIDs(ctx context.Context, courseIDs []string) ([]model.Task, error)
}

type ProgressRepository interface {
	ProjectProgress(ctx context.Context, studentID string, projectIDs []string) ([]model.Progress, error)
	TaskProgress(ctx context.Context, studentID string, taskIDs []string) ([]model.Progress, error)
	// ListByStudent 两个进度集合的全部记录
	ListByStudent(ctx context.Context, studentID string) ([]model.Progress, error)
}

type PredictionRepository interface {
	// Recent 按 createdAt 倒序
	Recent(ctx context.Context, studentID string, limit int) ([]model.StoredPrediction, error)
}

type AuditRepository interface {
	Create(ctx context.Context, audit *model.PredictionAudit) error
	List(ctx context.Context, studentID string, limit int) ([]model.PredictionAudit, error)
}
