package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quarind/docqa/internal/model"
)

// ErrUnavailable means the provider is unreachable or misconfigured
// (typically missing credentials). It is never retried internally.
var ErrUnavailable = errors.New("ai provider unavailable")

// ChatRequest is one generation call: system instructions, windowed
// conversation history and the current question.
type ChatRequest struct {
	System   string
	History  []model.ChatMessage
	Question string
}

// ChatResult carries the generated text plus best-effort token usage
// (zero when the provider does not report it).
type ChatResult struct {
	Text       string
	TokensUsed int
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, opts GenerateOptions, req ChatRequest) (*ChatResult, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type GenerateOptions struct {
	MaxOutputTokens int
	// Temperature below zero leaves the provider default in place; zero
	// and above is sent to the provider verbatim.
	Temperature float64
}

type IGenerator interface {
	Generate(ctx context.Context, req ChatRequest) (*ChatResult, error)
	ModelName() string
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

type generator struct {
	provider IProvider
	model    string
	opts     GenerateOptions
	timeout  time.Duration
}

func NewGenerator(p IProvider, model string, opts GenerateOptions, timeout time.Duration) IGenerator {
	return &generator{provider: p, model: model, opts: opts, timeout: timeout}
}

func (g *generator) Generate(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	res, err := g.provider.Generate(ctx, g.model, g.opts, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, fmt.Errorf("empty ai response")
	}
	return res, nil
}

func (g *generator) ModelName() string {
	return g.model
}

type embedder struct {
	provider IProvider
	model    string
}

// NewEmbedder binds a provider to an embedding model. Returned vectors are
// L2-normalized so dot products are cosine similarities.
func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec, err := e.provider.Embed(ctx, e.model, text, taskType)
	if err != nil {
		return nil, err
	}
	return normalize(vec), nil
}

func (e *embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *embedder) ModelName() string {
	return e.model
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
