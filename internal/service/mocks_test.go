package service

import (
	"context"
	"errors"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRiskModel struct {
	probabilityFn func(record model.FeatureRecord) (float64, error)
}

func (m *fakeRiskModel) Probability(record model.FeatureRecord) (float64, error) {
	return m.probabilityFn(record)
}

func (m *fakeRiskModel) Kind() string { return "fake" }

// fixedModel 所有记录返回同一个概率
func fixedModel(p float64) *fakeRiskModel {
	return &fakeRiskModel{probabilityFn: func(model.FeatureRecord) (float64, error) { return p, nil }}
}

type fakeRecommender struct {
	name        string
	recommendFn func(ctx context.Context, in model.RecommendationInput) (*model.Recommendation, error)
}

func (r *fakeRecommender) Name() string { return r.name }

func (r *fakeRecommender) Recommend(ctx context.Context, in model.RecommendationInput) (*model.Recommendation, error) {
	return r.recommendFn(ctx, in)
}

type fakeEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	calls   int
}

func (e *fakeEmbedder) Name() string { return "fake" }

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	return e.embedFn(ctx, texts)
}

// vectorEmbedder 按文本查表，未知文本返回零向量
func vectorEmbedder(table map[string][]float32, dims int) *fakeEmbedder {
	return &fakeEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			if v, ok := table[t]; ok {
				out[i] = v
			} else {
				out[i] = make([]float32, dims)
			}
		}
		return out, nil
	}}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]float32
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]float32{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = vec
}

type fakeAudit struct {
	created []*model.PredictionAudit
	err     error
}

func (a *fakeAudit) Create(_ context.Context, audit *model.PredictionAudit) error {
	if a.err != nil {
		return a.err
	}
	a.created = append(a.created, audit)
	return nil
}

func (a *fakeAudit) List(_ context.Context, studentID string, limit int) ([]model.PredictionAudit, error) {
	var out []model.PredictionAudit
	for i := len(a.created) - 1; i >= 0 && len(out) < limit; i-- {
		if studentID == "" || a.created[i].StudentID == studentID {
			out = append(out, *a.created[i])
		}
	}
	return out, nil
}

// lms 内存版的 LMS 文档库，实现全部只读仓库接口
type lms struct {
	students    map[string]*model.Student
	courses     []model.Course
	projects    []model.Project
	tasks       []model.Task
	progress    []model.Progress
	predictions []model.StoredPrediction
	studentErr  error
}

func newLMS() *lms {
	return &lms{students: map[string]*model.Student{}}
}

func (l *lms) FindByID(_ context.Context, id string) (*model.Student, error) {
	if l.studentErr != nil {
		return nil, l.studentErr
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, util.ErrInvalidObjectID
	}
	st, ok := l.students[id]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	return st, nil
}

func (l *lms) FindForStudent(_ context.Context, year, semester int, spec string, activeOnly bool) ([]model.Course, error) {
	var out []model.Course
	for _, c := range l.courses {
		if util.IntOr(c.Year, 0) != year || util.IntOr(c.Semester, 0) != semester {
			continue
		}
		if activeOnly && c.IsArchived {
			continue
		}
		for _, s := range c.Specializations {
			if s == spec {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type projectRepo struct{ *lms }

func (r projectRepo) FindByCourseIDs(_ context.Context, ids []string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range r.projects {
		if contains(ids, p.CourseID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type taskRepo struct{ *lms }

func (r taskRepo) FindByCourseIDs(_ context.Context, ids []string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range r.tasks {
		if contains(ids, t.CourseID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (l *lms) ProjectProgress(_ context.Context, studentID string, ids []string) ([]model.Progress, error) {
	var out []model.Progress
	for _, p := range l.progress {
		if p.StudentID == studentID && p.ProjectID != "" && contains(ids, p.ProjectID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *lms) TaskProgress(_ context.Context, studentID string, ids []string) ([]model.Progress, error) {
	var out []model.Progress
	for _, p := range l.progress {
		if p.StudentID == studentID && p.TaskID != "" && contains(ids, p.TaskID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *lms) ListByStudent(_ context.Context, studentID string) ([]model.Progress, error) {
	var out []model.Progress
	for _, p := range l.progress {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *lms) Recent(_ context.Context, _ string, limit int) ([]model.StoredPrediction, error) {
	if limit > len(l.predictions) {
		limit = len(l.predictions)
	}
	return l.predictions[:limit], nil
}

func (l *lms) directory() *StudentDirectory {
	return NewStudentDirectory(l, l, projectRepo{l}, taskRepo{l}, l, l, testLogger)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func timePtr(t time.Time) *time.Time { return &t }

var errBackend = errors.New("backend unavailable")
