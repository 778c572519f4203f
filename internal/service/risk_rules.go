package service

import (
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
)

// riskRule 单条风险因素规则，互相独立
type riskRule struct {
	factor      string
	field       string
	def         float64
	severity    string
	description string
	fires       func(v float64) bool
}

var riskRules = []riskRule{
	{
		factor: "low_engagement", field: "total_clicks", def: 0,
		severity: util.RiskHigh, description: "Low total VLE interaction",
		fires: func(v float64) bool { return v < 2000 },
	},
	{
		factor: "low_daily_activity", field: "avg_clicks_per_day", def: 0,
		severity: util.RiskMedium, description: "Low average daily clicks",
		fires: func(v float64) bool { return v < 20 },
	},
	{
		factor: "low_performance", field: "avg_score", def: 100,
		severity: util.RiskHigh, description: "Low average assessment score",
		fires: func(v float64) bool { return v < 50 },
	},
	{
		factor: "low_completion", field: "completion_rate", def: 1.0,
		severity: util.RiskHigh, description: "Low assessment completion rate",
		fires: func(v float64) bool { return v < 0.7 },
	},
	{
		factor: "frequent_late_submissions", field: "late_submission_count", def: 0,
		severity: util.RiskMedium, description: "Multiple late submissions",
		fires: func(v float64) bool { return v > 3 },
	},
	{
		factor: "previous_attempts", field: "num_of_prev_attempts", def: 0,
		severity: util.RiskMedium, description: "Student has previously attempted this course",
		fires: func(v float64) bool { return v > 0 },
	},
}

// IdentifyRiskFactors 按规则表顺序返回命中的风险因素
func IdentifyRiskFactors(record model.FeatureRecord) []model.RiskFactor {
	factors := make([]model.RiskFactor, 0, len(riskRules))
	for _, r := range riskRules {
		v := util.FloatOr(record, r.field, r.def)
		if !r.fires(v) {
			continue
		}
		factors = append(factors, model.RiskFactor{
			Factor:      r.factor,
			Description: r.description,
			Value:       v,
			Severity:    r.severity,
		})
	}
	return factors
}

func factorNames(factors []model.RiskFactor) []string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = f.Factor
	}
	return names
}
