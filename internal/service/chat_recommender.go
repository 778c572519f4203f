package service

import (
	"context"
	"fmt"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/internal/model"
	"smart_lms_analytics/internal/util"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	GroqBaseURL  = "https://api.groq.com/openai/v1"
	LocalBaseURL = "http://localhost:8080/v1"
)

// ChatRecommender 通过 OpenAI 兼容接口（Groq 或本地 llama.cpp/ollama）生成推荐
type ChatRecommender struct {
	client      openai.Client
	source      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	schema      any
	log         *zap.Logger
	now         func() time.Time
}

func NewChatRecommender(cfg config.RecommenderConfig, log *zap.Logger) (*ChatRecommender, error) {
	source := util.SourceGroq
	baseURL := cfg.BaseURL
	apiKey := cfg.APIKey

	switch cfg.Backend {
	case config.RecommenderGroq:
		if apiKey == "" {
			return nil, fmt.Errorf("groq backend requires an API key")
		}
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
	case config.RecommenderLocal:
		source = util.SourceLocalLLM
		if baseURL == "" {
			baseURL = LocalBaseURL
		}
		// 本地服务一般不校验 key
		if apiKey == "" {
			apiKey = "local"
		}
	default:
		return nil, fmt.Errorf("chat recommender does not support backend %q", cfg.Backend)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &ChatRecommender{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(0),
		),
		source:      source,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		schema:      recommendationSchema(),
		log:         log,
		now:         time.Now,
	}, nil
}

func recommendationSchema() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&llmRecommendation{})
}

func (r *ChatRecommender) Name() string {
	return r.source
}

func (r *ChatRecommender) Recommend(ctx context.Context, in model.RecommendationInput) (*model.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(advisorSystemPrompt),
			openai.UserMessage(buildAdvisorPrompt(in)),
		},
		MaxTokens:   openai.Int(int64(r.maxTokens)),
		Temperature: openai.Float(r.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "student_recommendation",
					Description: openai.String("Personalised study recommendation"),
					Schema:      r.schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", r.source, err)
	}

	r.log.Debug("LLM recommendation completed",
		zap.String("backend", r.source),
		zap.String("model", r.model),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", r.source)
	}

	out, err := parseLLMRecommendation(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &model.Recommendation{
		Explanation: out.Explanation,
		ActionSteps: out.ActionSteps,
		Motivation:  out.Motivation,
		GeneratedAt: r.now().UTC(),
		Source:      r.source,
		Model:       r.model,
	}, nil
}
