package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"smart_lms_analytics/internal/config"
	"strings"
	"time"
	"unicode"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	googleoption "google.golang.org/api/option"
)

// Embedder 把文本映射为向量
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder 按配置选择实现
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, log *zap.Logger) (Embedder, error) {
	switch cfg.Backend {
	case config.EmbeddingOpenAI:
		return NewOpenAIEmbedder(cfg), nil
	case config.EmbeddingGemini:
		return NewGeminiEmbedder(ctx, cfg)
	case config.EmbeddingLexical, "":
		return NewLexicalEmbedder(lexicalDims), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}

// OpenAIEmbedder 调用 OpenAI 兼容的 /embeddings 接口，如部署了 all-MiniLM-L6-v2 的本地服务
type OpenAIEmbedder struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithMaxRetries(1)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithAPIKey("local"))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenAIEmbedder{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return "openai:" + e.model
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		out[d.Index] = v
	}
	return out, nil
}

type GeminiEmbedder struct {
	client  *genai.Client
	model   *genai.EmbeddingModel
	name    string
	timeout time.Duration
}

func NewGeminiEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini embedder requires an API key")
	}
	client, err := genai.NewClient(ctx, googleoption.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" || name == "all-MiniLM-L6-v2" {
		name = "text-embedding-004"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GeminiEmbedder{
		client:  client,
		model:   client.EmbeddingModel(name),
		name:    name,
		timeout: timeout,
	}, nil
}

func (e *GeminiEmbedder) Name() string {
	return "gemini:" + e.name
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	batch := e.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: expected %d vectors, got %d", len(texts), len(res.Embeddings))
	}

	out := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

const lexicalDims = 512

// LexicalEmbedder 离线实现：词与字符三元组哈希到固定维度后归一化
type LexicalEmbedder struct {
	dims int
}

func NewLexicalEmbedder(dims int) *LexicalEmbedder {
	if dims <= 0 {
		dims = lexicalDims
	}
	return &LexicalEmbedder{dims: dims}
}

func (e *LexicalEmbedder) Name() string {
	return "lexical"
}

func (e *LexicalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *LexicalEmbedder) embed(text string) []float32 {
	v := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		scale := float32(1)
		if _, ok := fillerWords[w]; ok {
			scale = fillerWeight
		}
		w = stemWord(w)
		// 整词权重高于三元组
		e.add(v, "w:"+w, 2*scale)
		padded := []rune("#" + w + "#")
		for j := 0; j+3 <= len(padded); j++ {
			e.add(v, "t:"+string(padded[j:j+3]), scale)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// 口语中的虚词只保留少量权重，疑问词保留全权重
const fillerWeight = 0.2

var fillerWords = toSet(strings.Fields(`a an the i me my mine am is are was be to of for on in at and or
	with you your please show give some any this that it its can could would`))

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// stemWord 去掉常见的复数与名词化后缀，deadlines/deadline、recommendations/recommend 落到同一词干
func stemWord(w string) string {
	n := len(w)
	switch {
	case n > 6 && strings.HasSuffix(w, "ations"):
		return w[:n-6]
	case n > 5 && strings.HasSuffix(w, "ation"):
		return w[:n-5]
	case n > 4 && strings.HasSuffix(w, "ies"):
		return w[:n-3] + "y"
	case n > 5 && strings.HasSuffix(w, "ing"):
		return w[:n-3]
	case n > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:n-1]
	}
	return w
}

func (e *LexicalEmbedder) add(v []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()
	idx := int(sum % uint32(e.dims))
	// 用一位决定符号，减少碰撞带来的偏差
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	v[idx] += weight
}

// CosineSimilarity 任一向量为零时返回 0
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
