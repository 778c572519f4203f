package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"smart_lms_analytics/pkg/monitoring"
	"smart_lms_analytics/pkg/tracing"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RiskModel 由 pkg/ml.Artifacts 实现
type RiskModel interface {
	Probability(record model.FeatureRecord) (float64, error)
	Kind() string
}

const (
	ChannelSingle    = "single"
	ChannelBatch     = "batch"
	ChannelCSV       = "csv"
	ChannelAnalytics = "analytics"
)

type PredictionService struct {
	model   RiskModel
	recs    *RecommendationService
	audit   AuditRepository
	storage *StorageService
	log     *zap.Logger

	mu         sync.RWMutex
	thresholds model.Thresholds
}

func NewPredictionService(m RiskModel, recs *RecommendationService, audit AuditRepository, storage *StorageService, thresholds model.Thresholds, log *zap.Logger) *PredictionService {
	return &PredictionService{
		model:      m,
		recs:       recs,
		audit:      audit,
		storage:    storage,
		log:        log,
		thresholds: thresholds,
	}
}

func (s *PredictionService) ModelLoaded() bool {
	return s.model != nil
}

func (s *PredictionService) Thresholds() model.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds 配置热更新时调用
func (s *PredictionService) SetThresholds(t model.Thresholds) error {
	if t.Low < 0 || t.Low > t.Medium || t.Medium >= t.High || t.High > 1 {
		return fmt.Errorf("invalid risk thresholds: low=%.2f medium=%.2f high=%.2f", t.Low, t.Medium, t.High)
	}
	s.mu.Lock()
	s.thresholds = t
	s.mu.Unlock()
	s.log.Info("Risk thresholds updated",
		zap.Float64("high", t.High),
		zap.Float64("medium", t.Medium),
		zap.Float64("low", t.Low))
	return nil
}

// RiskLevel high >= high 阈值，medium >= medium 阈值，否则 low
func (s *PredictionService) RiskLevel(p float64) string {
	t := s.Thresholds()
	switch {
	case p >= t.High:
		return util.RiskHigh
	case p >= t.Medium:
		return util.RiskMedium
	default:
		return util.RiskLow
	}
}

// ValidateRecord 按特征顺序返回缺失的键，值为 null 视为存在
func ValidateRecord(record model.FeatureRecord) []string {
	var missing []string
	for _, name := range model.RequiredFeatures() {
		if _, ok := record[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Predict 模型打分并识别风险因素，不生成推荐
func (s *PredictionService) Predict(ctx context.Context, record model.FeatureRecord) (*model.PredictionResult, error) {
	if s.model == nil {
		return nil, util.ErrModelNotLoaded
	}

	_, span := tracing.StartSpan(ctx, "PredictionService.Predict",
		attribute.String("model.kind", s.model.Kind()))
	defer span.End()

	p, err := s.model.Probability(record)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	atRisk := p >= 0.5
	confidence := p
	if !atRisk {
		confidence = 1 - p
	}

	level := s.RiskLevel(p)
	monitoring.RecordPrediction(level)

	return &model.PredictionResult{
		AtRisk:          atRisk,
		RiskProbability: util.Round(p, 3),
		Confidence:      util.Round(confidence, 3),
		RiskLevel:       level,
		RiskFactors:     IdentifyRiskFactors(record),
	}, nil
}

// Assess 校验、预测并生成推荐；缺特征时返回 *util.MissingFeaturesError
func (s *PredictionService) Assess(ctx context.Context, record model.FeatureRecord, studentCtx *model.StudentContext, channel string) (*model.PredictionResponse, error) {
	if missing := ValidateRecord(record); len(missing) > 0 {
		return nil, &util.MissingFeaturesError{Missing: missing}
	}

	result, err := s.Predict(ctx, record)
	if err != nil {
		return nil, err
	}

	studentID := record.StudentID()
	result.Recommendations = s.recs.Generate(ctx, model.RecommendationInput{
		StudentData:     record,
		RiskLevel:       result.RiskLevel,
		RiskProbability: result.RiskProbability,
		RiskFactors:     result.RiskFactors,
		Context:         studentCtx,
	}, studentID)

	s.recordAudit(ctx, studentID, result, channel)

	s.log.Info("Prediction with recommendations successful",
		zap.String("student_id", studentID),
		zap.String("risk_level", result.RiskLevel),
		zap.String("source", result.Recommendations.Source))

	return &model.PredictionResponse{StudentID: studentID, Prediction: result}, nil
}

// PredictBatch 单条失败不影响整体
func (s *PredictionService) PredictBatch(ctx context.Context, records []model.FeatureRecord) *model.BatchResponse {
	resp := &model.BatchResponse{
		Predictions: make([]model.BatchItem, 0, len(records)),
		Total:       len(records),
	}

	for _, record := range records {
		item := model.BatchItem{StudentID: record.StudentID()}

		result, err := s.predictChecked(ctx, record)
		if err != nil {
			s.log.Error("Error predicting for student", zap.String("student_id", item.StudentID), zap.Error(err))
			item.Status = model.BatchStatusError
			item.Error = err.Error()
		} else {
			item.Status = model.BatchStatusSuccess
			item.Prediction = result
			resp.Successful++
			s.recordAudit(ctx, item.StudentID, result, ChannelBatch)
		}
		resp.Predictions = append(resp.Predictions, item)
	}

	return resp
}

func (s *PredictionService) predictChecked(ctx context.Context, record model.FeatureRecord) (*model.PredictionResult, error) {
	if record == nil {
		return nil, errors.New("student record is empty")
	}
	if missing := ValidateRecord(record); len(missing) > 0 {
		return nil, &util.MissingFeaturesError{Missing: missing}
	}
	return s.Predict(ctx, record)
}

// utf8BOM Excel 导出的 CSV 常带此前缀
var utf8BOM = []byte("\xef\xbb\xbf")

// PredictCSV 表头即特征名；返回原始列加 risk_score、risk_level、risk_label
func (s *PredictionService) PredictCSV(ctx context.Context, r io.Reader) (*model.CSVBatch, error) {
	if s.model == nil {
		return nil, util.ErrModelNotLoaded
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	header := rows[0]
	columns := make(model.FeatureRecord, len(header))
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		columns[header[i]] = nil
	}
	missing := ValidateRecord(columns)
	if len(missing) > 0 {
		s.log.Warn("CSV upload is missing required features, using 0",
			zap.Strings("missing", missing))
	}

	high := s.Thresholds().High
	out := make([]map[string]interface{}, 0, len(rows)-1)

	for n, row := range rows[1:] {
		record := make(model.FeatureRecord, len(header))
		item := make(map[string]interface{}, len(header)+3)
		for i, col := range header {
			if i >= len(row) {
				break
			}
			record[col] = row[i]
			item[col] = csvValue(row[i])
		}

		p, err := s.model.Probability(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}

		level := s.RiskLevel(p)
		monitoring.RecordPrediction(level)

		label := util.LabelLowModerate
		if p >= high {
			label = util.LabelHighRisk
		}

		item["risk_score"] = util.Round(p, 4)
		item["risk_level"] = level
		item["risk_label"] = label
		out = append(out, item)

		s.recordAudit(ctx, record.StudentID(), &model.PredictionResult{
			AtRisk:          p >= 0.5,
			RiskProbability: util.Round(p, 3),
			RiskLevel:       level,
			RiskFactors:     IdentifyRiskFactors(record),
		}, ChannelCSV)
	}

	if s.storage != nil {
		if result, err := json.Marshal(out); err == nil {
			s.storage.ArchiveBatch(ctx, raw, result)
		}
	}

	return &model.CSVBatch{Records: out, Total: len(out), MissingFeatures: missing}, nil
}

// csvValue 数字列按数字输出
func csvValue(v string) interface{} {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func (s *PredictionService) recordAudit(ctx context.Context, studentID string, result *model.PredictionResult, channel string) {
	if s.audit == nil {
		return
	}

	source := ""
	if result.Recommendations != nil {
		source = result.Recommendations.Source
	}

	audit := &model.PredictionAudit{
		StudentID:            studentID,
		RiskProbability:      result.RiskProbability,
		RiskLevel:            result.RiskLevel,
		AtRisk:               result.AtRisk,
		Factors:              strings.Join(factorNames(result.RiskFactors), ","),
		RecommendationSource: source,
		Channel:              channel,
	}
	if err := s.audit.Create(ctx, audit); err != nil {
		s.log.Warn("Failed to write prediction audit", zap.String("student_id", studentID), zap.Error(err))
	}
}

// AuditLog 最近的审计记录
func (s *PredictionService) AuditLog(ctx context.Context, studentID string, limit int) ([]model.PredictionAudit, error) {
	if s.audit == nil {
		return nil, util.ErrAuditDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.audit.List(ctx, studentID, limit)
}

func (s *PredictionService) ModelInfo() *model.ModelInfo {
	kind := ""
	if s.model != nil {
		kind = s.model.Kind()
	}
	return &model.ModelInfo{
		ModelType:           kind,
		ModelLoaded:         s.model != nil,
		NumericFeatures:     len(model.NumericFeatures),
		CategoricalFeatures: len(model.CategoricalFeatures),
		TotalFeatures:       len(model.NumericFeatures) + len(model.CategoricalFeatures),
		FeatureNames:        model.ModelFeatureNames(),
		RiskThresholds:      s.Thresholds(),
	}
}

// Features /api/features 的返回
func Features() *model.FeatureList {
	return &model.FeatureList{
		NumericFeatures:     model.NumericFeatures,
		CategoricalFeatures: model.CategoricalFeatures,
		TotalFeatures:       len(model.NumericFeatures) + len(model.CategoricalFeatures),
	}
}
