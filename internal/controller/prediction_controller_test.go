package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"smart_lms_analytics/internal/controller"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PredictionController", func() {
	var (
		predictor *mockPredictor
		router    *gin.Engine
	)

	BeforeEach(func() {
		predictor = &mockPredictor{loaded: true}
		c := controller.NewPredictionController(predictor)
		h := controller.NewHealthController(predictor, map[string]controller.Pinger{
			"mongodb": func(context.Context) error { return nil },
		}, "1.0.0")

		router = gin.New()
		router.GET("/", h.Index)
		router.GET("/api/health", h.HealthCheck)
		router.GET("/api/model/info", c.ModelInfo)
		router.GET("/api/features", c.Features)
		router.GET("/api/sample", c.Sample)
		router.POST("/api/predict", c.Predict)
		router.POST("/api/predict/batch", c.PredictBatch)
		router.POST("/api/predict/csv", c.PredictCSV)
		router.GET("/api/predictions/audit", c.AuditLog)
	})

	Describe("health", func() {
		It("reports a healthy service", func() {
			w, env := perform(router, http.MethodGet, "/api/health", nil, "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var data map[string]interface{}
			Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
			Expect(data["status"]).To(Equal("healthy"))
			Expect(data["model_loaded"]).To(BeTrue())
			Expect(data["components"]).To(HaveKeyWithValue("mongodb", "up"))
		})

		It("degrades when a component is down", func() {
			h := controller.NewHealthController(predictor, map[string]controller.Pinger{
				"redis": func(context.Context) error { return errors.New("refused") },
			}, "1.0.0")
			r := gin.New()
			r.GET("/api/health", h.HealthCheck)

			_, env := perform(r, http.MethodGet, "/api/health", nil, "")
			var data map[string]interface{}
			Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
			Expect(data["status"]).To(Equal("degraded"))
		})

		It("lists the endpoints on the index", func() {
			w, env := perform(router, http.MethodGet, "/", nil, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(string(env.Data)).To(ContainSubstring(util.ServiceName))
		})
	})

	It("returns 27 features", func() {
		_, env := perform(router, http.MethodGet, "/api/features", nil, "")
		var list model.FeatureList
		Expect(json.Unmarshal(env.Data, &list)).To(Succeed())
		Expect(list.TotalFeatures).To(Equal(27))
		Expect(list.NumericFeatures).To(HaveLen(23))
	})

	It("returns the two sample students", func() {
		_, env := perform(router, http.MethodGet, "/api/sample", nil, "")
		var data struct {
			Samples []struct {
				Description string                 `json:"description"`
				Data        map[string]interface{} `json:"data"`
			} `json:"samples"`
		}
		Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
		Expect(data.Samples).To(HaveLen(2))
		Expect(data.Samples[0].Data["student_id"]).To(Equal("SAMPLE_001"))
		Expect(data.Samples[1].Data["student_id"]).To(Equal("SAMPLE_002"))
	})

	Describe("POST /api/predict", func() {
		It("rejects non-JSON bodies", func() {
			w, env := perform(router, http.MethodPost, "/api/predict", bytes.NewBufferString("a=b"), "text/plain")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Error).To(Equal("Content-Type must be application/json"))
		})

		It("returns 400 with the missing feature list", func() {
			predictor.assessFn = func(_ context.Context, _ model.FeatureRecord, _ *model.StudentContext, _ string) (*model.PredictionResponse, error) {
				return nil, &util.MissingFeaturesError{Missing: []string{"total_clicks", "gender"}}
			}
			w, env := perform(router, http.MethodPost, "/api/predict", jsonBody(map[string]interface{}{}), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Error).To(Equal("Missing required features"))
			Expect(env.MissingFeatures).To(Equal([]string{"total_clicks", "gender"}))
		})

		It("passes the student context separately from the features", func() {
			var gotRecord model.FeatureRecord
			var gotCtx *model.StudentContext
			predictor.assessFn = func(_ context.Context, record model.FeatureRecord, sc *model.StudentContext, channel string) (*model.PredictionResponse, error) {
				gotRecord, gotCtx = record, sc
				Expect(channel).To(Equal("single"))
				return &model.PredictionResponse{StudentID: "S1", Prediction: &model.PredictionResult{RiskLevel: util.RiskLow}}, nil
			}

			body := fullRecord()
			body["student_id"] = "S1"
			body["student_context"] = map[string]interface{}{"year": "3", "semester": 2, "specialization": "SE"}

			w, env := perform(router, http.MethodPost, "/api/predict", jsonBody(body), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(env.Success).To(BeTrue())
			Expect(gotRecord).NotTo(HaveKey("student_context"))
			Expect(gotCtx).To(Equal(&model.StudentContext{Year: 3, Semester: 2, Specialization: "SE"}))
		})

		It("maps service failures to 500", func() {
			predictor.assessFn = func(context.Context, model.FeatureRecord, *model.StudentContext, string) (*model.PredictionResponse, error) {
				return nil, errors.New("prediction failed: boom")
			}
			w, env := perform(router, http.MethodPost, "/api/predict", jsonBody(fullRecord()), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(env.Error).To(Equal("prediction failed: boom"))
		})
	})

	Describe("POST /api/predict/batch", func() {
		It("requires a students list", func() {
			w, _ := perform(router, http.MethodPost, "/api/predict/batch", jsonBody(map[string]interface{}{}), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns per-student results", func() {
			predictor.predictBatchFn = func(_ context.Context, records []model.FeatureRecord) *model.BatchResponse {
				return &model.BatchResponse{Total: len(records), Successful: 1, Predictions: []model.BatchItem{
					{StudentID: "A", Status: model.BatchStatusSuccess},
					{StudentID: "B", Status: model.BatchStatusError, Error: "missing"},
				}}
			}
			body := map[string]interface{}{"students": []interface{}{fullRecord(), map[string]interface{}{"student_id": "B"}}}
			w, env := perform(router, http.MethodPost, "/api/predict/batch", jsonBody(body), util.MimeJSON)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp model.BatchResponse
			Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(2))
			Expect(resp.Successful).To(Equal(1))
		})
	})

	Describe("POST /api/predict/csv", func() {
		upload := func(filename, content string) (io.Reader, string) {
			buf := &bytes.Buffer{}
			mw := multipart.NewWriter(buf)
			fw, err := mw.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write([]byte(content))
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())
			return buf, mw.FormDataContentType()
		}

		It("requires a file", func() {
			w, env := perform(router, http.MethodPost, "/api/predict/csv", nil, "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Error).To(Equal(util.ErrEmptyUpload.Error()))
		})

		It("rejects non-CSV files", func() {
			body, ct := upload("data.xlsx", "x")
			w, env := perform(router, http.MethodPost, "/api/predict/csv", body, ct)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Error).To(Equal(util.ErrUnsupportedUpload.Error()))
		})

		It("returns the scored rows", func() {
			predictor.predictCSVFn = func(_ context.Context, r io.Reader) (*model.CSVBatch, error) {
				raw, err := io.ReadAll(r)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(raw)).To(HavePrefix("total_clicks"))
				records := []map[string]interface{}{{"risk_score": 0.8, "risk_label": util.LabelHighRisk}}
				return &model.CSVBatch{Records: records, Total: 1, MissingFeatures: []string{"avg_score"}}, nil
			}
			body, ct := upload("students.CSV", "total_clicks\n10\n")
			w, env := perform(router, http.MethodPost, "/api/predict/csv", body, ct)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(string(env.Data)).To(ContainSubstring(`"total":1`))
			Expect(string(env.Data)).To(ContainSubstring(`"missing_features":["avg_score"]`))
		})
	})

	Describe("GET /api/predictions/audit", func() {
		It("returns 404 when auditing is off", func() {
			predictor.auditLogFn = func(context.Context, string, int) ([]model.PredictionAudit, error) {
				return nil, util.ErrAuditDisabled
			}
			w, _ := perform(router, http.MethodGet, "/api/predictions/audit", nil, "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("forwards the filters", func() {
			predictor.auditLogFn = func(_ context.Context, studentID string, limit int) ([]model.PredictionAudit, error) {
				Expect(studentID).To(Equal("S9"))
				Expect(limit).To(Equal(5))
				return []model.PredictionAudit{{StudentID: "S9"}}, nil
			}
			w, _ := perform(router, http.MethodGet, "/api/predictions/audit?student_id=S9&limit=5", nil, "")
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
