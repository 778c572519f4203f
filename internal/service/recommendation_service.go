package service

import (
	"context"
	"fmt"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"smart_lms_analytics/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// Recommender 推荐生成策略
type Recommender interface {
	Name() string
	Recommend(ctx context.Context, in model.RecommendationInput) (*model.Recommendation, error)
}

// RecommendationService 调用配置的后端，失败时依次退回规则模板和基础兜底
type RecommendationService struct {
	backend Recommender
	rules   Recommender
	history HistoryStore
	log     *zap.Logger
	now     func() time.Time
}

func NewRecommendationService(backend Recommender, history HistoryStore, log *zap.Logger) *RecommendationService {
	rules := NewRuleRecommender()
	if backend == nil {
		backend = rules
	}
	if history == nil {
		history = NewMemoryHistoryStore(DefaultHistoryLimit)
	}
	return &RecommendationService{
		backend: backend,
		rules:   rules,
		history: history,
		log:     log,
		now:     time.Now,
	}
}

func (s *RecommendationService) BackendName() string {
	return s.backend.Name()
}

// Generate 不返回错误，也不会返回空字段
func (s *RecommendationService) Generate(ctx context.Context, in model.RecommendationInput, studentID string) *model.Recommendation {
	if studentID != "" {
		entry := model.HistoryEntry{
			Timestamp: s.now().UTC(),
			RiskProb:  in.RiskProbability,
			RiskLevel: in.RiskLevel,
		}
		h, err := s.history.Append(ctx, studentID, entry)
		if err != nil {
			s.log.Warn("Failed to update student history", zap.String("student_id", studentID), zap.Error(err))
		} else {
			in.ImprovementTrend = isImproving(h)
		}
	}

	rec, err := s.try(ctx, s.backend, in)
	if err == nil {
		return s.finish(rec, studentID, "")
	}

	s.log.Warn("Recommendation backend failed, using rules",
		zap.String("backend", s.backend.Name()),
		zap.String("student_id", studentID),
		zap.Error(err))
	reason := err.Error()

	if s.backend != s.rules {
		rec, err = s.try(ctx, s.rules, in)
		if err == nil {
			return s.finish(rec, studentID, reason)
		}
		s.log.Error("Rule recommender failed", zap.Error(err))
	}

	return s.finish(basicRecommendation(in.RiskLevel, s.now()), studentID, reason)
}

// try 捕获后端 panic，并把空字段视为失败
func (s *RecommendationService) try(ctx context.Context, r Recommender, in model.RecommendationInput) (rec *model.Recommendation, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec, err = nil, fmt.Errorf("%s panicked: %v", r.Name(), p)
		}
	}()

	rec, err = r.Recommend(ctx, in)
	if err != nil {
		return nil, err
	}
	if !rec.IsComplete() {
		return nil, util.ErrEmptyRecommendation
	}
	return rec, nil
}

func (s *RecommendationService) finish(rec *model.Recommendation, studentID, reason string) *model.Recommendation {
	rec.PersonalizationUsed = studentID != ""
	rec.FallbackReason = reason
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = s.now().UTC()
	}
	monitoring.RecordRecommendation(rec.Source, reason != "")
	return rec
}

// History 供分析接口查看趋势
func (s *RecommendationService) History(ctx context.Context, studentID string) ([]model.HistoryEntry, error) {
	return s.history.Get(ctx, studentID)
}
