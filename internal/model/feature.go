package model

import "github.com/spf13/cast"

// FeatureRecord 单个学生的模型输入，键为特征名
type FeatureRecord map[string]interface{}

// NumericFeatures 模型输入中数值特征的顺序
var NumericFeatures = []string{
	"total_clicks",
	"avg_clicks_per_day",
	"clicks_std",
	"max_clicks_single_day",
	"days_active",
	"study_span_days",
	"engagement_regularity",
	"pre_course_clicks",
	"avg_score",
	"score_std",
	"min_score",
	"max_score",
	"completion_rate",
	"first_score",
	"score_improvement",
	"avg_days_early",
	"timing_consistency",
	"worst_delay",
	"late_submission_count",
	"num_of_prev_attempts",
	"studied_credits",
	"early_registration",
	"withdrew",
}

// CategoricalFeatures 需要标签编码的类别特征
var CategoricalFeatures = []string{
	"gender",
	"age_band",
	"highest_education",
	"disability",
}

// RequiredFeatures 数值特征在前，类别特征在后
func RequiredFeatures() []string {
	out := make([]string, 0, len(NumericFeatures)+len(CategoricalFeatures))
	out = append(out, NumericFeatures...)
	out = append(out, CategoricalFeatures...)
	return out
}

// ModelFeatureNames 模型实际看到的列名
func ModelFeatureNames() []string {
	out := make([]string, 0, len(NumericFeatures)+len(CategoricalFeatures))
	out = append(out, NumericFeatures...)
	for _, name := range CategoricalFeatures {
		out = append(out, name+"_encoded")
	}
	return out
}

// StudentID student_id 可能是字符串也可能是数字
func (r FeatureRecord) StudentID() string {
	v, ok := r["student_id"]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Clone 浅拷贝，避免修改调用方的 map
func (r FeatureRecord) Clone() FeatureRecord {
	out := make(FeatureRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type FeatureList struct {
	NumericFeatures     []string `json:"numeric_features"`
	CategoricalFeatures []string `json:"categorical_features"`
	TotalFeatures       int      `json:"total_features"`
}
