package service

import (
	"context"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RecommendationService", func() {
	var (
		ctx     context.Context
		history *MemoryHistoryStore
		input   model.RecommendationInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		history = NewMemoryHistoryStore(DefaultHistoryLimit)
		record := highRiskProfile()
		input = model.RecommendationInput{
			StudentData:     record,
			RiskLevel:       util.RiskHigh,
			RiskProbability: 0.88,
			RiskFactors:     IdentifyRiskFactors(record),
		}
	})

	It("defaults to the rule backend", func() {
		s := NewRecommendationService(nil, history, testLogger)
		Expect(s.BackendName()).To(Equal(util.SourceRules))

		rec := s.Generate(ctx, input, "")
		Expect(rec.Source).To(Equal(util.SourceRules))
		Expect(rec.FallbackReason).To(BeEmpty())
		Expect(rec.PersonalizationUsed).To(BeFalse())
	})

	It("uses the configured backend when it succeeds", func() {
		backend := &fakeRecommender{name: util.SourceGroq, recommendFn: func(context.Context, model.RecommendationInput) (*model.Recommendation, error) {
			return &model.Recommendation{Explanation: "e", ActionSteps: []string{"a", "b", "c"}, Motivation: "m", Source: util.SourceGroq}, nil
		}}
		rec := NewRecommendationService(backend, history, testLogger).Generate(ctx, input, "S1")
		Expect(rec.Source).To(Equal(util.SourceGroq))
		Expect(rec.PersonalizationUsed).To(BeTrue())
		Expect(rec.GeneratedAt.IsZero()).To(BeFalse())
	})

	DescribeTable("falls back to the rules on any backend failure",
		func(recommend func(context.Context, model.RecommendationInput) (*model.Recommendation, error), reason string) {
			backend := &fakeRecommender{name: util.SourceGemini, recommendFn: recommend}
			rec := NewRecommendationService(backend, history, testLogger).Generate(ctx, input, "S1")

			Expect(rec.Source).To(Equal(util.SourceRules))
			Expect(rec.IsComplete()).To(BeTrue())
			Expect(len(rec.ActionSteps)).To(BeNumerically(">=", 3))
			Expect(len(rec.ActionSteps)).To(BeNumerically("<=", 6))
			Expect(rec.FallbackReason).To(ContainSubstring(reason))
		},
		Entry("error", func(context.Context, model.RecommendationInput) (*model.Recommendation, error) {
			return nil, errBackend
		}, "backend unavailable"),
		Entry("panic", func(context.Context, model.RecommendationInput) (*model.Recommendation, error) {
			panic("nil client")
		}, "panicked"),
		Entry("empty fields", func(context.Context, model.RecommendationInput) (*model.Recommendation, error) {
			return &model.Recommendation{Explanation: "only this"}, nil
		}, util.ErrEmptyRecommendation.Error()),
		Entry("nil result", func(context.Context, model.RecommendationInput) (*model.Recommendation, error) {
			return nil, nil
		}, util.ErrEmptyRecommendation.Error()),
	)

	It("records history and detects improvement", func() {
		s := NewRecommendationService(nil, history, testLogger)

		input.RiskProbability = 0.8
		first := s.Generate(ctx, input, "S1")
		Expect(first.Motivation).NotTo(ContainSubstring("Great progress"))

		input.RiskProbability = 0.6
		input.RiskLevel = util.RiskMedium
		second := s.Generate(ctx, input, "S1")
		Expect(second.Motivation).To(HavePrefix("Great progress"))

		h, err := s.History(ctx, "S1")
		Expect(err).NotTo(HaveOccurred())
		Expect(h).To(HaveLen(2))
		Expect(h[0].RiskProb).To(Equal(0.8))
	})

	It("does not track anonymous requests", func() {
		s := NewRecommendationService(nil, history, testLogger)
		s.Generate(ctx, input, "")
		h, err := s.History(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(h).To(BeEmpty())
	})
})

var _ = Describe("MemoryHistoryStore", func() {
	It("keeps only the most recent entries", func() {
		ctx := context.Background()
		store := NewMemoryHistoryStore(DefaultHistoryLimit)
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		var h []model.HistoryEntry
		for i := 0; i < 15; i++ {
			var err error
			h, err = store.Append(ctx, "S1", model.HistoryEntry{Timestamp: base.Add(time.Duration(i) * time.Hour), RiskProb: float64(i) / 100})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(h).To(HaveLen(10))
		Expect(h[0].RiskProb).To(Equal(0.05))
		Expect(h[9].RiskProb).To(Equal(0.14))

		other, _ := store.Get(ctx, "S2")
		Expect(other).To(BeEmpty())
	})

	It("returns copies", func() {
		ctx := context.Background()
		store := NewMemoryHistoryStore(3)
		h, _ := store.Append(ctx, "S1", model.HistoryEntry{RiskProb: 0.5})
		h[0].RiskProb = 0.99

		got, _ := store.Get(ctx, "S1")
		Expect(got[0].RiskProb).To(Equal(0.5))
	})

	DescribeTable("isImproving",
		func(probs []float64, want bool) {
			var h []model.HistoryEntry
			for _, p := range probs {
				h = append(h, model.HistoryEntry{RiskProb: p})
			}
			Expect(isImproving(h)).To(Equal(want))
		},
		Entry("no history", nil, false),
		Entry("single entry", []float64{0.5}, false),
		Entry("dropping", []float64{0.9, 0.5}, true),
		Entry("rising", []float64{0.5, 0.6}, false),
		Entry("flat", []float64{0.5, 0.5}, false),
	)
})
