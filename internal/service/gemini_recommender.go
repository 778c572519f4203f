package service

import (
	"context"
	"fmt"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GeminiRecommender struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewGeminiRecommender(ctx context.Context, cfg config.RecommenderConfig, log *zap.Logger) (*GeminiRecommender, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.GeminiModel
	if name == "" {
		name = "gemini-1.5-flash"
	}

	m := client.GenerativeModel(name)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(advisorSystemPrompt)},
	}
	m.ResponseMIMEType = "application/json"
	m.GenerationConfig.Temperature = genai.Ptr(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		m.GenerationConfig.MaxOutputTokens = genai.Ptr(int32(cfg.MaxTokens))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	log.Info("Gemini recommender initialized", zap.String("model", name))

	return &GeminiRecommender{
		client:    client,
		model:     m,
		modelName: name,
		timeout:   timeout,
		log:       log,
		now:       time.Now,
	}, nil
}

func (r *GeminiRecommender) Name() string {
	return util.SourceGemini
}

func (r *GeminiRecommender) Close() error {
	return r.client.Close()
}

func (r *GeminiRecommender) Recommend(ctx context.Context, in model.RecommendationInput) (*model.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.model.GenerateContent(ctx, genai.Text(buildAdvisorPrompt(in)))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	out, err := parseLLMRecommendation(text.String())
	if err != nil {
		return nil, err
	}

	return &model.Recommendation{
		Explanation: out.Explanation,
		ActionSteps: out.ActionSteps,
		Motivation:  out.Motivation,
		GeneratedAt: r.now().UTC(),
		Source:      util.SourceGemini,
		Model:       r.modelName,
	}, nil
}
