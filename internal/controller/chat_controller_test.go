package controller_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"smart_lms_analytics/internal/controller"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ChatController", func() {
	var (
		projects  *mockProjects
		analytics *mockAnalytics
		router    *gin.Engine
	)

	BeforeEach(func() {
		projects = &mockProjects{}
		analytics = &mockAnalytics{}
		c := controller.NewChatController(projects, analytics, util.SourceRules)

		router = gin.New()
		router.POST("/api/chat", c.Chat)
		router.POST("/api/chat/analytics", c.Analytics)
		router.POST("/api/heatmap", c.Heatmap)
		router.POST("/api/chat/test", c.TestConnection)
		router.GET("/api/analytics/predictions/:studentId", c.StudentPredictions)
	})

	DescribeTable("requires query and studentId",
		func(path string, body map[string]interface{}) {
			w, env := perform(router, http.MethodPost, path, jsonBody(body), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Error).To(Equal("Query and studentId required"))
		},
		Entry("chat without query", "/api/chat", map[string]interface{}{"studentId": "s"}),
		Entry("chat without student", "/api/chat", map[string]interface{}{"query": "deadlines"}),
		Entry("analytics with blank query", "/api/chat/analytics", map[string]interface{}{"query": "  ", "studentId": "s"}),
	)

	It("routes project questions to the project assistant", func() {
		projects.handleFn = func(_ context.Context, query, studentID string) (*model.ChatResponse, error) {
			Expect(query).To(Equal("show my projects"))
			Expect(studentID).To(Equal("64b7f0c2a1b2c3d4e5f60718"))
			return &model.ChatResponse{Response: "You have 0 project(s)", Intent: "list_projects", Module: util.ModuleProjectTask}, nil
		}

		body := map[string]interface{}{"query": "show my projects", "studentId": "64b7f0c2a1b2c3d4e5f60718"}
		w, env := perform(router, http.MethodPost, "/api/chat", jsonBody(body), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp model.ChatResponse
		Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
		Expect(resp.Intent).To(Equal("list_projects"))
		Expect(resp.Module).To(Equal(util.ModuleProjectTask))
	})

	It("returns 500 for lookup failures", func() {
		analytics.handleFn = func(context.Context, string, string) (*model.ChatResponse, error) {
			return nil, util.ErrInvalidObjectID
		}
		body := map[string]interface{}{"query": "am I at risk", "studentId": "bad"}
		w, env := perform(router, http.MethodPost, "/api/chat/analytics", jsonBody(body), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(env.Error).To(Equal(util.ErrInvalidObjectID.Error()))
	})

	It("requires studentId for the heatmap", func() {
		w, env := perform(router, http.MethodPost, "/api/heatmap", jsonBody(map[string]interface{}{}), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Error).To(Equal("studentId required"))
	})

	It("returns the heatmap", func() {
		projects.heatmapFn = func(context.Context, string) (*model.Heatmap, error) {
			return &model.Heatmap{Heatmap: []model.HeatmapDay{{Date: "2026-01-01", Count: 5, Level: 4}}, TotalDays: 1, TotalActivities: 5}, nil
		}
		w, env := perform(router, http.MethodPost, "/api/heatmap", jsonBody(map[string]interface{}{"studentId": "s"}), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusOK))

		var hm model.Heatmap
		Expect(json.Unmarshal(env.Data, &hm)).To(Succeed())
		Expect(hm.TotalActivities).To(Equal(5))
	})

	It("adds the recommender to the connection test", func() {
		projects.testFn = func(context.Context, string) (*model.ConnectionStatus, error) {
			return &model.ConnectionStatus{Status: "connected", StudentFound: true}, nil
		}
		_, env := perform(router, http.MethodPost, "/api/chat/test", jsonBody(map[string]interface{}{"studentId": "s"}), util.MimeJSON)

		var status model.ConnectionStatus
		Expect(json.Unmarshal(env.Data, &status)).To(Succeed())
		Expect(status.Recommender).To(Equal(util.SourceRules))
	})

	Describe("GET /api/analytics/predictions/:studentId", func() {
		It("returns 404 for unknown students", func() {
			analytics.predictionsFn = func(context.Context, string) (*model.StudentPrediction, error) {
				return nil, util.ErrStudentNotFound
			}
			w, _ := perform(router, http.MethodGet, "/api/analytics/predictions/64b7f0c2a1b2c3d4e5f60718", nil, "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 for other failures", func() {
			analytics.predictionsFn = func(context.Context, string) (*model.StudentPrediction, error) {
				return nil, errors.New("mongo down")
			}
			w, _ := perform(router, http.MethodGet, "/api/analytics/predictions/x", nil, "")
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("returns the prediction and context", func() {
			analytics.predictionsFn = func(_ context.Context, id string) (*model.StudentPrediction, error) {
				return &model.StudentPrediction{
					Prediction:     &model.PredictionResult{RiskLevel: util.RiskMedium},
					StudentContext: &model.StudentContext{Year: 2, Semester: 1},
					Source:         "model",
				}, nil
			}
			w, env := perform(router, http.MethodGet, "/api/analytics/predictions/abc", nil, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(string(env.Data)).To(ContainSubstring(`"risk_level":"medium"`))
		})
	})
})

var _ = Describe("RecommendationController", func() {
	var (
		recs   *mockRecommender
		router *gin.Engine
	)

	BeforeEach(func() {
		recs = &mockRecommender{}
		router = gin.New()
		router.POST("/api/recommendations", controller.NewRecommendationController(recs).Generate)
	})

	It("validates the risk level", func() {
		body := map[string]interface{}{"risk_level": "extreme", "risk_probability": 0.5}
		w, _ := perform(router, http.MethodPost, "/api/recommendations", jsonBody(body), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("derives risk factors from the student data when none are given", func() {
		recs.generateFn = func(_ context.Context, in model.RecommendationInput, studentID string) *model.Recommendation {
			Expect(studentID).To(Equal("S1"))
			Expect(in.RiskFactors).NotTo(BeEmpty())
			return &model.Recommendation{Explanation: "e", ActionSteps: []string{"a"}, Motivation: "m", Source: util.SourceRules}
		}
		body := map[string]interface{}{
			"student_id":       "S1",
			"risk_level":       "high",
			"risk_probability": 0.9,
			"student_data":     map[string]interface{}{"avg_score": 30, "completion_rate": 0.3},
		}
		w, env := perform(router, http.MethodPost, "/api/recommendations", jsonBody(body), util.MimeJSON)
		Expect(w.Code).To(Equal(http.StatusOK))

		var rec model.Recommendation
		Expect(json.Unmarshal(env.Data, &rec)).To(Succeed())
		Expect(rec.Source).To(Equal(util.SourceRules))
	})
})
