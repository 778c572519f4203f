package service

import (
	"encoding/json"
	"fmt"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strings"
)

const advisorSystemPrompt = "You are a supportive academic advisor for university students. " +
	"Reply only with a JSON object containing explanation, action_steps and motivation."

// llmRecommendation 模型返回的结构化结果
type llmRecommendation struct {
	Explanation string   `json:"explanation" jsonschema_description:"Two or three sentences explaining the student's risk level and main issues"`
	ActionSteps []string `json:"action_steps" jsonschema_description:"Three to six specific, actionable study steps"`
	Motivation  string   `json:"motivation" jsonschema_description:"One or two encouraging sentences"`
}

func buildAdvisorPrompt(in model.RecommendationInput) string {
	data := in.StudentData
	var b strings.Builder

	b.WriteString("Analyse this student's learning data and write personalised recommendations.\n\n")
	fmt.Fprintf(&b, "Risk level: %s\n", strings.ToUpper(in.RiskLevel))
	fmt.Fprintf(&b, "Risk probability: %.2f\n", in.RiskProbability)
	fmt.Fprintf(&b, "Total platform clicks: %s\n", groupThousands(util.FloatOr(data, "total_clicks", 0)))
	fmt.Fprintf(&b, "Average clicks per day: %.1f\n", util.FloatOr(data, "avg_clicks_per_day", 0))
	fmt.Fprintf(&b, "Average score: %.1f%%\n", util.FloatOr(data, "avg_score", 0))
	fmt.Fprintf(&b, "Completion rate: %.0f%%\n", util.FloatOr(data, "completion_rate", 0)*100)
	fmt.Fprintf(&b, "Late submissions: %s\n", formatNumber(util.FloatOr(data, "late_submission_count", 0)))
	fmt.Fprintf(&b, "Previous attempts: %s\n", formatNumber(util.FloatOr(data, "num_of_prev_attempts", 0)))

	if in.Context != nil {
		fmt.Fprintf(&b, "Year: %d, Semester: %d, Specialization: %s\n",
			in.Context.Year, in.Context.Semester, in.Context.Specialization)
	}

	if len(in.RiskFactors) > 0 {
		b.WriteString("\nIdentified risk factors:\n")
		for _, f := range in.RiskFactors {
			fmt.Fprintf(&b, "- %s (%s severity)\n", f.Description, f.Severity)
		}
	}

	if in.ImprovementTrend {
		b.WriteString("\nThe student's risk has dropped since the previous assessment.\n")
	}

	b.WriteString("\nGive 3 to 6 action steps. Be specific and practical.")
	return b.String()
}

// parseLLMRecommendation 去掉代码块标记后解析
func parseLLMRecommendation(raw string) (*llmRecommendation, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var out llmRecommendation
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("parse recommendation: %w", err)
	}

	steps := out.ActionSteps[:0]
	for _, s := range out.ActionSteps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) > maxActionSteps {
		steps = steps[:maxActionSteps]
	}
	out.ActionSteps = steps
	out.Explanation = strings.TrimSpace(out.Explanation)
	out.Motivation = strings.TrimSpace(out.Motivation)

	if out.Explanation == "" || len(out.ActionSteps) == 0 || out.Motivation == "" {
		return nil, util.ErrEmptyRecommendation
	}
	return &out, nil
}
