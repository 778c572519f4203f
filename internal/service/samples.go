package service

import "smart_lms_analytics/internal/model"

// Sample 供 /api/sample 展示的示例学生
type Sample struct {
	Description string              `json:"description"`
	Data        model.FeatureRecord `json:"data"`
}

func lowRiskProfile() model.FeatureRecord {
	return model.FeatureRecord{
		"student_id":            "SAMPLE_001",
		"total_clicks":          5000,
		"avg_clicks_per_day":    50,
		"clicks_std":            25,
		"max_clicks_single_day": 150,
		"days_active":           100,
		"study_span_days":       120,
		"engagement_regularity": 0.5,
		"pre_course_clicks":     200,
		"avg_score":             75,
		"score_std":             10,
		"min_score":             60,
		"max_score":             90,
		"completion_rate":       0.9,
		"first_score":           70,
		"score_improvement":     20,
		"avg_days_early":        2,
		"timing_consistency":    3,
		"worst_delay":           -1,
		"late_submission_count": 1,
		"num_of_prev_attempts":  0,
		"studied_credits":       60,
		"early_registration":    1,
		"withdrew":              0,
		"gender":                "M",
		"age_band":              "0-35",
		"highest_education":     "A Level or Equivalent",
		"disability":            "N",
	}
}

func highRiskProfile() model.FeatureRecord {
	return model.FeatureRecord{
		"student_id":            "SAMPLE_002",
		"total_clicks":          500,
		"avg_clicks_per_day":    5,
		"clicks_std":            10,
		"max_clicks_single_day": 30,
		"days_active":           30,
		"study_span_days":       100,
		"engagement_regularity": 2.0,
		"pre_course_clicks":     0,
		"avg_score":             35,
		"score_std":             15,
		"min_score":             20,
		"max_score":             50,
		"completion_rate":       0.4,
		"first_score":           30,
		"score_improvement":     20,
		"avg_days_early":        -3,
		"timing_consistency":    10,
		"worst_delay":           -10,
		"late_submission_count": 5,
		"num_of_prev_attempts":  2,
		"studied_credits":       60,
		"early_registration":    0,
		"withdrew":              0,
		"gender":                "F",
		"age_band":              "35-55",
		"highest_education":     "Lower Than A Level",
		"disability":            "N",
	}
}

func Samples() []Sample {
	return []Sample{
		{Description: "Low-risk student", Data: lowRiskProfile()},
		{Description: "High-risk student", Data: highRiskProfile()},
	}
}
