package service

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IntentClassifier", func() {
	var (
		ctx   context.Context
		table IntentTable
		vecs  map[string][]float32
	)

	BeforeEach(func() {
		ctx = context.Background()
		table = IntentTable{
			General: "general",
			Intents: []Intent{
				{Name: "alpha", Keywords: []string{"a1", "a2"}},
				{Name: "beta", Keywords: []string{"b1"}},
			},
		}
		vecs = map[string][]float32{
			"a1":       {1, 0, 0, 0, 0},
			"a2":       {1, 0, 0, 0, 0},
			"b1":       {0, 1, 0, 0, 0},
			"q alpha":  {0.9, 0.1, 0, 0, 0},
			"q beta":   {0.1, 0.9, 0, 0, 0},
			"boundary": {1, 0, 1, 1, 1},
			"tie":      {1, 1, 0, 0, 0},
		}
	})

	DescribeTable("picks the most similar keyword above the threshold",
		func(query, want string) {
			c := NewIntentClassifier("test", table, vectorEmbedder(vecs, 5), nil, 0.5, testLogger)
			got, _ := c.Classify(ctx, query)
			Expect(got).To(Equal(want))
		},
		Entry("alpha", "Q Alpha", "alpha"),
		Entry("beta", "q beta", "beta"),
		Entry("similarity exactly at threshold", "boundary", "general"),
		Entry("tie goes to the first keyword", "tie", "alpha"),
		Entry("unknown query", "nothing", "general"),
	)

	It("returns the general label when the embedder fails and retries later", func() {
		calls := 0
		emb := &fakeEmbedder{}
		emb.embedFn = func(c context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls == 1 {
				return nil, errBackend
			}
			return vectorEmbedder(vecs, 5).embedFn(c, texts)
		}

		c := NewIntentClassifier("test", table, emb, nil, 0.5, testLogger)
		Expect(c.Warmup(ctx)).To(MatchError(ContainSubstring("backend unavailable")))

		intent, score := c.Classify(ctx, "q alpha")
		Expect(intent).To(Equal("alpha"))
		Expect(score).To(BeNumerically(">", 0.5))
	})

	It("falls back to general when the query cannot be embedded", func() {
		emb := &fakeEmbedder{}
		emb.embedFn = func(c context.Context, texts []string) ([][]float32, error) {
			if len(texts) == 1 && texts[0] == "q alpha" {
				return nil, errBackend
			}
			return vectorEmbedder(vecs, 5).embedFn(c, texts)
		}
		c := NewIntentClassifier("test", table, emb, nil, 0.5, testLogger)
		intent, score := c.Classify(ctx, "q alpha")
		Expect(intent).To(Equal("general"))
		Expect(score).To(BeZero())
	})

	It("computes keyword vectors once and fills the cache", func() {
		emb := vectorEmbedder(vecs, 5)
		cache := newMemoryCache()
		c := NewIntentClassifier("test", table, emb, cache, 0.5, testLogger)

		c.Classify(ctx, "q alpha")
		c.Classify(ctx, "q beta")
		Expect(emb.calls).To(Equal(3))
		Expect(cache.data).To(HaveLen(3))

		// 新实例直接从缓存读取关键词向量
		emb2 := vectorEmbedder(vecs, 5)
		c2 := NewIntentClassifier("test", table, emb2, cache, 0.5, testLogger)
		Expect(c2.Warmup(ctx)).To(Succeed())
		Expect(emb2.calls).To(BeZero())
	})

	It("classifies with the lexical embedder", func() {
		tables := DefaultIntentTables()
		c := NewIntentClassifier("analytics", tables.Analytics, NewLexicalEmbedder(0), nil, 0.5, testLogger)

		intent, score := c.Classify(ctx, "engagement")
		Expect(intent).To(Equal(IntentEngagementMetrics))
		Expect(score).To(BeNumerically("~", 1, 1e-6))
	})

	DescribeTable("routes everyday project questions with the lexical embedder",
		func(query, want string) {
			c := NewIntentClassifier("project_task", DefaultIntentTables().ProjectTask, NewLexicalEmbedder(0), nil, 0.5, testLogger)
			intent, _ := c.Classify(ctx, query)
			Expect(intent).To(Equal(want))
		},
		Entry(nil, "Show me my upcoming deadlines", IntentUpcomingDeadlines),
		Entry(nil, "When is my next deadline?", IntentUpcomingDeadlines),
		Entry(nil, "What are my projects?", IntentListProjects),
		Entry(nil, "List my assignments", IntentListProjects),
		Entry(nil, "What should I do first?", IntentPrioritizedTasks),
		Entry(nil, "Which tasks are urgent?", IntentPrioritizedTasks),
		Entry(nil, "Give me a summary of my tasks", IntentTaskSummary),
		Entry(nil, "What is my completion rate?", IntentCompletionRate),
		Entry(nil, "Tell me about Alpha Project", IntentProjectDetails),
		Entry(nil, "hello", IntentGeneralQuestion),
	)

	DescribeTable("routes everyday analytics questions with the lexical embedder",
		func(query, want string) {
			c := NewIntentClassifier("analytics", DefaultIntentTables().Analytics, NewLexicalEmbedder(0), nil, 0.5, testLogger)
			intent, _ := c.Classify(ctx, query)
			Expect(intent).To(Equal(want))
		},
		Entry(nil, "What is my risk level?", IntentRiskPrediction),
		Entry(nil, "Am I at risk of failing?", IntentRiskPrediction),
		Entry(nil, "Give me some recommendations", IntentRecommendations),
		Entry(nil, "How can I improve?", IntentRecommendations),
		Entry(nil, "Show my performance", IntentPerformanceView),
		Entry(nil, "How are my grades?", IntentPerformanceView),
		Entry(nil, "What is my engagement?", IntentEngagementMetrics),
		Entry(nil, "Show my activity", IntentEngagementMetrics),
		Entry(nil, "Show my risk trend over time", IntentTrendAnalysis),
		Entry(nil, "Compare me with other students", IntentComparison),
		Entry(nil, "How is my course going?", IntentCoursePerformance),
		Entry(nil, "good morning", IntentGeneralAnalytics),
	)
})

var _ = DescribeTable("stemWord",
	func(word, want string) {
		Expect(stemWord(word)).To(Equal(want))
	},
	Entry(nil, "deadlines", "deadline"),
	Entry(nil, "recommendations", "recommend"),
	Entry(nil, "activities", "activity"),
	Entry(nil, "failing", "fail"),
	Entry(nil, "progress", "progress"),
	Entry(nil, "gpa", "gpa"),
)

var _ = Describe("CosineSimilarity", func() {
	It("handles degenerate vectors", func() {
		Expect(CosineSimilarity(nil, nil)).To(BeZero())
		Expect(CosineSimilarity([]float32{0, 0}, []float32{1, 0})).To(BeZero())
		Expect(CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})).To(BeZero())
	})

	It("is one for identical directions", func() {
		Expect(CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6})).To(BeNumerically("~", 1, 1e-9))
	})
})

var _ = Describe("LoadIntentTables", func() {
	It("uses built-in tables when the file is missing", func() {
		tables, err := LoadIntentTables(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(tables.ProjectTask.General).To(Equal(IntentGeneralQuestion))
		Expect(tables.Analytics.Intents).NotTo(BeEmpty())
	})

	It("overrides only the tables present in the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "intents.yaml")
		data := "analytics:\n  intents:\n    - name: risk_prediction\n      keywords: [risk]\n"
		Expect(os.WriteFile(path, []byte(data), 0o644)).To(Succeed())

		tables, err := LoadIntentTables(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(tables.Analytics.General).To(Equal(IntentGeneralAnalytics))
		Expect(tables.Analytics.Intents).To(HaveLen(1))
		Expect(tables.ProjectTask).To(Equal(DefaultIntentTables().ProjectTask))
	})

	It("reports invalid YAML", func() {
		path := filepath.Join(GinkgoT().TempDir(), "intents.yaml")
		Expect(os.WriteFile(path, []byte("analytics: ["), 0o644)).To(Succeed())
		_, err := LoadIntentTables(path)
		Expect(err).To(HaveOccurred())
	})
})
