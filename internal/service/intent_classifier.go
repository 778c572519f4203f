package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"smart_lms_analytics/pkg/monitoring"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultIntentThreshold = 0.5

type Intent struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// IntentTable 有序的意图表，General 为未命中时的标签
type IntentTable struct {
	General string   `yaml:"general"`
	Intents []Intent `yaml:"intents"`
}

type IntentTables struct {
	ProjectTask IntentTable `yaml:"project_task"`
	Analytics   IntentTable `yaml:"analytics"`
}

const (
	IntentListProjects      = "list_projects"
	IntentUpcomingDeadlines = "upcoming_deadlines"
	IntentTaskSummary       = "task_summary"
	IntentPrioritizedTasks  = "prioritized_tasks"
	IntentProjectDetails    = "project_details"
	IntentCompletionRate    = "completion_rate"
	IntentGeneralQuestion   = "general_question"

	IntentRiskPrediction    = "risk_prediction"
	IntentPerformanceView   = "performance_view"
	IntentRecommendations   = "recommendations"
	IntentEngagementMetrics = "engagement_metrics"
	IntentTrendAnalysis     = "trend_analysis"
	IntentCoursePerformance = "course_performance"
	IntentComparison        = "comparison"
	IntentGeneralAnalytics  = "general_analytics"
)

func DefaultIntentTables() IntentTables {
	return IntentTables{
		ProjectTask: IntentTable{
			General: IntentGeneralQuestion,
			Intents: []Intent{
				{IntentListProjects, []string{"projects", "assignments", "what do i have", "show my projects", "project list"}},
				{IntentUpcomingDeadlines, []string{"deadline", "due date", "when is due", "upcoming", "next deadline"}},
				{IntentTaskSummary, []string{"summary", "progress", "completion", "how am i doing", "status"}},
				{IntentPrioritizedTasks, []string{"priority", "urgent", "urgent tasks", "important", "what should i do", "todo"}},
				{IntentProjectDetails, []string{"details about", "tell me about", "project details", "information on", "what is"}},
				{IntentCompletionRate, []string{"completion rate", "percentage", "how much done", "completion"}},
			},
		},
		Analytics: IntentTable{
			General: IntentGeneralAnalytics,
			Intents: []Intent{
				{IntentRiskPrediction, []string{"risk", "risk level", "failing", "fail", "at risk", "danger", "academic risk", "prediction"}},
				{IntentPerformanceView, []string{"performance", "grades", "scores", "marks", "gpa", "results"}},
				{IntentRecommendations, []string{"recommend", "suggestion", "improve", "help", "advice", "study tips"}},
				{IntentEngagementMetrics, []string{"engagement", "participation", "activity", "involvement", "progress"}},
				{IntentTrendAnalysis, []string{"trend", "pattern", "over time", "history", "historical", "timeline"}},
				{IntentCoursePerformance, []string{"course", "module", "subject", "class performance", "course performance", "how is my course"}},
				{IntentComparison, []string{"compare", "comparison", "versus", "vs", "other students", "average"}},
			},
		},
	}
}

// LoadIntentTables 文件不存在时使用内置表；文件中缺失的表也用内置值补齐
func LoadIntentTables(path string) (IntentTables, error) {
	tables := DefaultIntentTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return tables, nil
	}
	if err != nil {
		return tables, fmt.Errorf("read intents %s: %w", path, err)
	}

	var loaded IntentTables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return tables, fmt.Errorf("parse intents %s: %w", path, err)
	}

	if len(loaded.ProjectTask.Intents) > 0 {
		if loaded.ProjectTask.General == "" {
			loaded.ProjectTask.General = IntentGeneralQuestion
		}
		tables.ProjectTask = loaded.ProjectTask
	}
	if len(loaded.Analytics.Intents) > 0 {
		if loaded.Analytics.General == "" {
			loaded.Analytics.General = IntentGeneralAnalytics
		}
		tables.Analytics = loaded.Analytics
	}
	return tables, nil
}

type keywordVector struct {
	intent string
	vec    []float32
}

// IntentClassifier 查询与关键词向量的余弦相似度取最大者，超过阈值才采纳
type IntentClassifier struct {
	module    string
	table     IntentTable
	embedder  Embedder
	cache     EmbeddingCache
	threshold float64
	log       *zap.Logger

	mu       sync.Mutex
	keywords []keywordVector
}

func NewIntentClassifier(module string, table IntentTable, embedder Embedder, cache EmbeddingCache, threshold float64, log *zap.Logger) *IntentClassifier {
	if threshold <= 0 {
		threshold = DefaultIntentThreshold
	}
	return &IntentClassifier{
		module:    module,
		table:     table,
		embedder:  embedder,
		cache:     cache,
		threshold: threshold,
		log:       log,
	}
}

func (c *IntentClassifier) General() string {
	return c.table.General
}

// Warmup 预先计算关键词向量，失败时下次请求会重试
func (c *IntentClassifier) Warmup(ctx context.Context) error {
	_, err := c.keywordVectors(ctx)
	return err
}

func (c *IntentClassifier) keywordVectors(ctx context.Context) ([]keywordVector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keywords != nil {
		return c.keywords, nil
	}

	var (
		vectors []keywordVector
		missing []string
		slots   []int
	)
	for _, in := range c.table.Intents {
		for _, kw := range in.Keywords {
			kv := keywordVector{intent: in.Name}
			if c.cache != nil {
				if vec, ok := c.cache.Get(ctx, embeddingCacheKey(c.embedder.Name(), kw)); ok {
					kv.vec = vec
				}
			}
			if kv.vec == nil {
				missing = append(missing, kw)
				slots = append(slots, len(vectors))
			}
			vectors = append(vectors, kv)
		}
	}

	if len(missing) > 0 {
		embedded, err := c.embedder.Embed(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embed intent keywords: %w", err)
		}
		for i, vec := range embedded {
			vectors[slots[i]].vec = vec
			if c.cache != nil {
				c.cache.Set(ctx, embeddingCacheKey(c.embedder.Name(), missing[i]), vec)
			}
		}
	}

	c.keywords = vectors
	c.log.Info("Intent keyword embeddings ready",
		zap.String("module", c.module),
		zap.String("embedder", c.embedder.Name()),
		zap.Int("keywords", len(vectors)),
		zap.Int("computed", len(missing)))
	return vectors, nil
}

// Classify 返回意图及最佳相似度；向量服务不可用时退回通用标签
func (c *IntentClassifier) Classify(ctx context.Context, query string) (string, float64) {
	intent, score, err := c.classify(ctx, query)
	if err != nil {
		c.log.Warn("Intent classification failed", zap.String("module", c.module), zap.Error(err))
		intent, score = c.table.General, 0
	}
	monitoring.RecordIntent(c.module, intent)
	return intent, score
}

func (c *IntentClassifier) classify(ctx context.Context, query string) (string, float64, error) {
	keywords, err := c.keywordVectors(ctx)
	if err != nil {
		return "", 0, err
	}

	q, err := c.embedder.Embed(ctx, []string{strings.ToLower(query)})
	if err != nil {
		return "", 0, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != 1 {
		return "", 0, fmt.Errorf("embed query: expected 1 vector, got %d", len(q))
	}

	best, bestScore := "", 0.0
	for _, kv := range keywords {
		if sim := CosineSimilarity(q[0], kv.vec); sim > bestScore {
			best, bestScore = kv.intent, sim
		}
	}

	if bestScore > c.threshold {
		return best, bestScore, nil
	}
	return c.table.General, bestScore, nil
}
