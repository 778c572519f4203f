package service

import (
	"context"
	"errors"
	"fmt"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	storedPredictionLimit = 5
	trendStableBand       = 0.02
)

const analyticsHelp = "**📊 Learning Analytics Support**\n\n" +
	"I can help you with:\n" +
	"1. **Risk Prediction** - View your academic risk assessment\n" +
	"2. **Performance Metrics** - See your overall academic performance\n" +
	"3. **Personalized Recommendations** - Get study tips tailored to your situation\n" +
	"4. **Engagement Analysis** - Track your participation and activity levels\n\n" +
	"What would you like to know about?"

const profileNotFound = "I couldn't find your student profile. Please make sure you're logged in correctly."

// 风险评估来源
const (
	RiskSourceModel  = "model"
	RiskSourceStored = "stored"
	RiskSourceNone   = "none"
)

// AnalyticsChatbot 回答风险、推荐、参与度与趋势问题，预测在进程内完成
type AnalyticsChatbot struct {
	dir         *StudentDirectory
	predictions *PredictionService
	recs        *RecommendationService
	classifier  *IntentClassifier
	log         *zap.Logger
	now         func() time.Time
}

func NewAnalyticsChatbot(dir *StudentDirectory, predictions *PredictionService, recs *RecommendationService,
	classifier *IntentClassifier, log *zap.Logger) *AnalyticsChatbot {
	return &AnalyticsChatbot{
		dir:         dir,
		predictions: predictions,
		recs:        recs,
		classifier:  classifier,
		log:         log,
		now:         time.Now,
	}
}

// riskAssessment 一次评估的结果；模型失败时可能来自已存储的预测
type riskAssessment struct {
	result *model.PredictionResult
	record model.FeatureRecord
	source string
	err    error
}

func (r *riskAssessment) level() string {
	if r.result == nil || r.result.RiskLevel == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(r.result.RiskLevel)
}

func (b *AnalyticsChatbot) Handle(ctx context.Context, query, studentID string) (*model.ChatResponse, error) {
	intent, score := b.classifier.Classify(ctx, query)
	b.log.Debug("Classified query",
		zap.String("module", util.ModuleAnalytics),
		zap.String("intent", intent),
		zap.Float64("score", score))

	st, err := b.dir.Student(ctx, studentID)
	if errors.Is(err, util.ErrStudentNotFound) {
		return &model.ChatResponse{Response: profileNotFound, Intent: "error", Module: util.ModuleAnalytics}, nil
	}
	if err != nil {
		return nil, err
	}

	var text string
	switch intent {
	case IntentRiskPrediction:
		text = formatRisk(b.assess(ctx, st, studentID, true))
	case IntentRecommendations:
		text = b.recommend(ctx, st, studentID)
	case IntentEngagementMetrics:
		text, err = b.engagement(ctx, studentID)
	case IntentPerformanceView:
		text, err = b.performance(ctx, st, studentID)
	case IntentTrendAnalysis:
		text, err = b.trend(ctx, studentID)
	default:
		text = analyticsHelp
	}
	if err != nil {
		return nil, err
	}

	return &model.ChatResponse{Response: text, Intent: intent, Module: util.ModuleAnalytics}, nil
}

// GetPredictions 学生的即时风险评估与上下文
func (b *AnalyticsChatbot) GetPredictions(ctx context.Context, studentID string) (*model.StudentPrediction, error) {
	st, err := b.dir.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	a := b.assess(ctx, st, studentID, true)
	return &model.StudentPrediction{
		Prediction:     a.result,
		StudentContext: ContextOf(st),
		Source:         a.source,
		Timestamp:      b.now().UTC(),
	}, nil
}

// assess 以最近一次存储的 inputData 或默认画像打分；fallback 为 true 时模型失败退回存储的预测
func (b *AnalyticsChatbot) assess(ctx context.Context, st *model.Student, studentID string, fallback bool) *riskAssessment {
	stored, err := b.dir.StoredPredictions(ctx, studentID, storedPredictionLimit)
	if err != nil {
		b.log.Warn("Failed to load stored predictions", zap.String("student_id", studentID), zap.Error(err))
	}

	record := b.profileFor(st, studentID, stored)
	a := &riskAssessment{record: record, source: RiskSourceModel}

	if missing := ValidateRecord(record); len(missing) > 0 {
		a.err = &util.MissingFeaturesError{Missing: missing}
	} else {
		a.result, a.err = b.predictions.Predict(ctx, record)
	}
	if a.err == nil {
		return a
	}

	b.log.Warn("In-process prediction failed",
		zap.String("student_id", studentID),
		zap.Error(a.err))

	a.result = nil
	a.source = RiskSourceNone
	if fallback && len(stored) > 0 {
		a.result = fromStored(stored[0], record)
		a.source = RiskSourceStored
	}
	return a
}

// profileFor 优先使用最近一次预测的输入特征
func (b *AnalyticsChatbot) profileFor(st *model.Student, studentID string, stored []model.StoredPrediction) model.FeatureRecord {
	id := st.StudentIDNumber
	if id == "" {
		id = studentID
	}

	var record model.FeatureRecord
	if len(stored) > 0 && stored[0].InputData != nil {
		record = model.FeatureRecord(stored[0].InputData).Clone()
	} else {
		record = lowRiskProfile()
		record["gender"] = genderCode(st.Gender)
		record["age_band"] = ageBand(st.DateOfBirth, b.now())
	}
	record["student_id"] = id
	return record
}

func fromStored(sp model.StoredPrediction, record model.FeatureRecord) *model.PredictionResult {
	return &model.PredictionResult{
		AtRisk:          sp.Prediction.AtRisk,
		RiskProbability: sp.Prediction.RiskProbability,
		Confidence:      sp.Prediction.Confidence,
		RiskLevel:       strings.ToLower(sp.Prediction.RiskLevel),
		RiskFactors:     IdentifyRiskFactors(record),
	}
}

func genderCode(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "female":
		return "F"
	case "other":
		return "O"
	default:
		return "M"
	}
}

// ageBand 出生日期缺失或无法解析时视为 0-35
func ageBand(dob interface{}, now time.Time) string {
	var birth time.Time
	switch v := dob.(type) {
	case primitive.DateTime:
		birth = v.Time()
	case time.Time:
		birth = v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			t, err = time.Parse(util.DateFormat, v)
		}
		if err != nil {
			return "0-35"
		}
		birth = t
	default:
		return "0-35"
	}

	age := int(now.Sub(birth).Hours()/24) / 365
	switch {
	case age <= 35:
		return "0-35"
	case age <= 55:
		return "35-55"
	default:
		return "55<="
	}
}

func asPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

func formatRisk(a *riskAssessment) string {
	level := a.level()
	var score, confidence float64
	if a.result != nil {
		score, confidence = a.result.RiskProbability, a.result.Confidence
	}

	emoji := "⚪"
	switch level {
	case "HIGH":
		emoji = "🔴"
	case "MEDIUM":
		emoji = "🟡"
	case "LOW":
		emoji = "🟢"
	}

	var sb strings.Builder
	sb.WriteString("**📊 Your Academic Risk Assessment**\n\n")
	fmt.Fprintf(&sb, "%s **Risk Level:** %s\n", emoji, level)
	fmt.Fprintf(&sb, "**Risk Score:** %.1f%%\n", asPercent(score))
	fmt.Fprintf(&sb, "**Prediction Confidence:** %.1f%%\n\n", asPercent(confidence))

	switch level {
	case "HIGH":
		sb.WriteString("⚠️ You're currently at high academic risk. It's important to take action now to improve your performance.\n\n")
	case "MEDIUM":
		sb.WriteString("⚡ You're showing some warning signs. With some adjustments, you can improve your academic standing.\n\n")
	default:
		sb.WriteString("✅ You're performing well! Keep up the good work and continue your current study habits.\n\n")
	}
	return sb.String()
}

func (b *AnalyticsChatbot) recommend(ctx context.Context, st *model.Student, studentID string) string {
	a := b.assess(ctx, st, studentID, true)

	in := model.RecommendationInput{
		StudentData: a.record,
		RiskLevel:   util.RiskLow,
		RiskFactors: IdentifyRiskFactors(a.record),
		Context:     ContextOf(st),
	}
	if a.result != nil {
		in.RiskLevel = a.result.RiskLevel
		in.RiskProbability = a.result.RiskProbability
		in.RiskFactors = a.result.RiskFactors
	}

	return formatRecommendation(b.recs.Generate(ctx, in, studentID))
}

func formatRecommendation(rec *model.Recommendation) string {
	var sb strings.Builder
	sb.WriteString("**Personalized Recommendations:**\n\n")
	fmt.Fprintf(&sb, "%s\n\n", rec.Explanation)
	for i, step := range rec.ActionSteps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	fmt.Fprintf(&sb, "\n%s", rec.Motivation)
	return sb.String()
}

func (b *AnalyticsChatbot) engagement(ctx context.Context, studentID string) (string, error) {
	activity, err := b.dir.Activity(ctx, studentID)
	if err != nil {
		return "", err
	}

	progress := make([]*model.Progress, len(activity))
	for i := range activity {
		progress[i] = &activity[i]
	}
	c := countStatus(progress)
	rate := c.rate()

	var sb strings.Builder
	sb.WriteString("**📈 Your Engagement Metrics**\n\n")
	sb.WriteString("**Activity Overview:**\n")
	fmt.Fprintf(&sb, "- Total Activities: %d\n", c.total)
	fmt.Fprintf(&sb, "- Completed: %d\n", c.done)
	fmt.Fprintf(&sb, "- In Progress: %d\n", c.inProgress)
	fmt.Fprintf(&sb, "- Completion Rate: %.1f%%\n\n", rate)

	switch {
	case rate >= 80:
		sb.WriteString("🌟 Excellent engagement! You're actively participating in your coursework.\n")
	case rate >= 60:
		sb.WriteString("👍 Good engagement level. Consider completing more pending tasks.\n")
	default:
		sb.WriteString("⚠️ Low engagement detected. Try to complete more activities to improve your performance.\n")
	}
	return sb.String(), nil
}

// performance 模型失败时只展示参与度
func (b *AnalyticsChatbot) performance(ctx context.Context, st *model.Student, studentID string) (string, error) {
	metrics, err := b.engagement(ctx, studentID)
	if err != nil {
		return "", err
	}

	a := b.assess(ctx, st, studentID, false)
	if a.err != nil {
		return metrics, nil
	}
	return formatRisk(a) + "\n\n" + metrics, nil
}

// trend 最近五次存储的预测，从旧到新
func (b *AnalyticsChatbot) trend(ctx context.Context, studentID string) (string, error) {
	stored, err := b.dir.StoredPredictions(ctx, studentID, storedPredictionLimit)
	if err != nil {
		return "", err
	}
	if len(stored) == 0 {
		return "I don't have any risk predictions for you yet. Ask me about your academic risk to get your first assessment.", nil
	}

	var sb strings.Builder
	sb.WriteString("**📉 Your Risk Trend**\n\n")
	for i := len(stored) - 1; i >= 0; i-- {
		p := stored[i]
		fmt.Fprintf(&sb, "- %s: %s (%.1f%%)\n",
			p.CreatedAt.Format(util.DateFormat),
			strings.ToUpper(p.Prediction.RiskLevel),
			asPercent(p.Prediction.RiskProbability))
	}
	sb.WriteString("\n")

	if len(stored) < 2 {
		sb.WriteString("Not enough history to identify a trend yet.\n")
		return sb.String(), nil
	}

	oldest := stored[len(stored)-1].Prediction.RiskProbability
	latest := stored[0].Prediction.RiskProbability
	switch {
	case latest < oldest-trendStableBand:
		sb.WriteString("📈 Your risk is decreasing. Keep up the good work!\n")
	case latest > oldest+trendStableBand:
		sb.WriteString("⚠️ Your risk is increasing. Consider asking for recommendations to get back on track.\n")
	default:
		sb.WriteString("➡️ Your risk has been stable.\n")
	}
	return sb.String(), nil
}
