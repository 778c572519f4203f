package service

import (
	"context"
	"fmt"
	"math"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strconv"
	"strings"
	"time"
)

const maxActionSteps = 6

// RuleRecommender 基于规则模板的推荐，不依赖外部模型
type RuleRecommender struct {
	now func() time.Time
}

func NewRuleRecommender() *RuleRecommender {
	return &RuleRecommender{now: time.Now}
}

func (r *RuleRecommender) Name() string {
	return util.SourceRules
}

func (r *RuleRecommender) Recommend(_ context.Context, in model.RecommendationInput) (*model.Recommendation, error) {
	return &model.Recommendation{
		Explanation: buildExplanation(in),
		ActionSteps: buildActionSteps(in),
		Motivation:  buildMotivation(in.RiskLevel, in.ImprovementTrend, len(in.RiskFactors)),
		GeneratedAt: r.now().UTC(),
		Source:      util.SourceRules,
	}, nil
}

func buildExplanation(in model.RecommendationInput) string {
	data := in.StudentData
	totalClicks := util.FloatOr(data, "total_clicks", 0)
	avgScore := util.FloatOr(data, "avg_score", 0)
	lateCount := util.FloatOr(data, "late_submission_count", 0)
	pct := formatPercent(in.RiskProbability)

	var parts []string

	switch in.RiskLevel {
	case util.RiskHigh:
		parts = append(parts, fmt.Sprintf("You're currently at high risk (%s probability) of academic difficulty.", pct))
	case util.RiskMedium:
		parts = append(parts, fmt.Sprintf("You're at moderate risk (%s probability) and need to address some areas.", pct))
	default:
		parts = append(parts, fmt.Sprintf("You're performing well with low risk (%s probability) of academic issues.", pct))
	}

	clicks := groupThousands(totalClicks)
	switch {
	case totalClicks < 1500:
		parts = append(parts, fmt.Sprintf("Your engagement is very low with only %s platform interactions.", clicks))
	case totalClicks < 3000:
		parts = append(parts, fmt.Sprintf("Your engagement is moderate with %s interactions, but consistency could improve.", clicks))
	default:
		parts = append(parts, fmt.Sprintf("Your engagement is strong with %s platform interactions.", clicks))
	}

	switch {
	case avgScore < 50:
		parts = append(parts, fmt.Sprintf("Your average score of %.1f%% indicates you're struggling with course content.", avgScore))
	case avgScore < 70:
		parts = append(parts, fmt.Sprintf("Your %.1f%% average shows developing understanding that needs strengthening.", avgScore))
	default:
		parts = append(parts, fmt.Sprintf("Your %.1f%% average demonstrates solid grasp of course material.", avgScore))
	}

	late := formatNumber(lateCount)
	switch {
	case lateCount > 3:
		parts = append(parts, fmt.Sprintf("Time management is a concern with %s late submissions.", late))
	case lateCount > 0:
		parts = append(parts, fmt.Sprintf("You have %s late submission(s) - maintaining deadlines is important.", late))
	}

	if in.ImprovementTrend {
		parts = append(parts, "Positively, your recent patterns show improvement!")
	}

	return strings.Join(parts, " ")
}

func hasFactor(names []string, subs ...string) bool {
	for _, n := range names {
		for _, s := range subs {
			if strings.Contains(n, s) {
				return true
			}
		}
	}
	return false
}

func buildActionSteps(in model.RecommendationInput) []string {
	data := in.StudentData
	names := factorNames(in.RiskFactors)
	totalClicks := util.FloatOr(data, "total_clicks", 0)
	avgScore := util.FloatOr(data, "avg_score", 0)
	lateCount := util.FloatOr(data, "late_submission_count", 0)
	completion := util.FloatOr(data, "completion_rate", 0)

	var steps []string

	if totalClicks < 2000 || hasFactor(names, "engagement", "click", "activity") {
		if totalClicks < 1000 {
			steps = append(steps,
				"Set a goal to log in daily and interact with course materials for at least 45 minutes",
				"Complete all unfinished course activities and watch remaining lecture videos")
		} else {
			steps = append(steps,
				"Increase your daily platform activity to at least 30 minutes of focused study",
				"Engage with all available learning resources including forums and practice materials")
		}
	}

	if avgScore < 70 || hasFactor(names, "performance", "score") {
		if avgScore < 50 {
			steps = append(steps,
				"Schedule urgent meetings with your instructor to discuss struggling topics",
				"Attend all tutoring sessions and form a study group with high-performing classmates",
				"Review and redo all previous assessments to identify knowledge gaps")
		} else {
			steps = append(steps,
				"Review course content thoroughly before each assessment using active learning techniques",
				"Create summary notes and practice questions for challenging topics")
		}
	}

	if completion < 0.7 || hasFactor(names, "completion") {
		steps = append(steps,
			"Prioritize completing all pending assessments immediately - focus on submission over perfection",
			"Break large assignments into smaller daily tasks with specific completion targets")
	}

	if lateCount > 2 || hasFactor(names, "late", "timing") {
		if lateCount > 5 {
			steps = append(steps,
				"Create a detailed weekly schedule with assignment deadlines highlighted and set multiple reminders",
				"Start every assignment the day it's assigned, even if just reading requirements")
		} else {
			steps = append(steps,
				"Build a buffer by starting assignments 5-7 days before deadlines",
				"Use a calendar app with alerts set 3 days, 1 day, and 6 hours before each deadline")
		}
	}

	if hasFactor(names, "previous", "attempt") {
		steps = append(steps,
			"Reflect on what didn't work in your previous attempt and create a new strategy",
			"Seek additional support resources that weren't used before")
	}

	if len(steps) == 0 {
		switch in.RiskLevel {
		case util.RiskHigh:
			steps = append(steps,
				"Meet with your academic advisor immediately to create an action plan",
				"Dedicate at least 2 hours daily to this course for the next two weeks",
				"Eliminate distractions during study time and use focused study techniques")
		case util.RiskMedium:
			steps = append(steps,
				"Increase your study time by 30 minutes per day",
				"Actively participate in all class discussions and group activities",
				"Complete practice problems and self-tests regularly")
		default:
			steps = append(steps,
				"Maintain your current positive study habits and engagement level",
				"Continue submitting work early and reviewing feedback carefully",
				"Consider helping peers to reinforce your own understanding")
		}
	}

	if len(steps) < 3 {
		steps = append(steps,
			"Check the course announcements and syllabus daily for any updates",
			"Reach out to your instructor if you're unsure about any requirements")
	}

	if len(steps) > maxActionSteps {
		steps = steps[:maxActionSteps]
	}
	return steps
}

func buildMotivation(riskLevel string, improving bool, numFactors int) string {
	if improving {
		return "Great progress! Your recent improvements show you're capable of success. Keep up this positive momentum and stay consistent with your efforts!"
	}

	switch riskLevel {
	case util.RiskHigh:
		if numFactors >= 4 {
			return "This is challenging, but not impossible! Many students have recovered from similar situations. Take it one task at a time, ask for help, and don't give up. Your instructors want to see you succeed!"
		}
		return "You can turn this around! Focus on the specific actions above, reach out for support, and commit to daily progress. Success is within your reach!"
	case util.RiskMedium:
		return "You're in a good position to improve! Small, consistent changes in your study habits will lead to significant results. Stay focused and proactive!"
	default:
		return "Excellent work! Your dedication and consistent efforts are clearly paying off. Keep maintaining these strong habits and you'll continue to excel!"
	}
}

// basicRecommendation 最后的兜底，不会失败
func basicRecommendation(riskLevel string, now time.Time) *model.Recommendation {
	if riskLevel == "" {
		riskLevel = util.RiskMedium
	}
	return &model.Recommendation{
		Explanation: fmt.Sprintf("You are currently at %s risk based on your learning patterns.", riskLevel),
		ActionSteps: []string{
			"Review course materials regularly",
			"Complete assignments on time",
			"Seek help when needed",
		},
		Motivation:  "Stay consistent and reach out for support!",
		GeneratedAt: now.UTC(),
		Source:      util.SourceBasicFallback,
	}
}

// formatPercent 0.734 -> "73%"
func formatPercent(p float64) string {
	return strconv.FormatFloat(math.RoundToEven(p*100), 'f', 0, 64) + "%"
}

// formatNumber 整数不带小数点
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupThousands 1234567 -> "1,234,567"
func groupThousands(v float64) string {
	s := formatNumber(v)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}
