package llm

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
)

// Gollem adapts a gollem.LLMClient (Gemini, OpenAI) to Invoker
type Gollem struct {
	client    gollem.LLMClient
	timeout   time.Duration
	dimension int
}

var _ Invoker = &Gollem{}

type GollemOption func(*Gollem)

func WithGollemTimeout(d time.Duration) GollemOption {
	return func(g *Gollem) {
		g.timeout = d
	}
}

func WithGollemEmbeddingDimension(dim int) GollemOption {
	return func(g *Gollem) {
		g.dimension = dim
	}
}

func NewGollem(client gollem.LLMClient, opts ...GollemOption) (*Gollem, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}

	g := &Gollem{
		client:    client,
		timeout:   DefaultTimeout,
		dimension: model.DefaultEmbeddingDimension,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gollem) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, err := g.client.NewSession(ctx, gollem.WithSessionSystemPrompt(system))
	if err != nil {
		return "", unavailable(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(user)},
		gollem.WithTemperature(Temperature),
		gollem.WithTopP(TopP),
	)
	if err != nil {
		return "", unavailable(err, "failed to generate content")
	}

	answer := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if answer == "" {
		return "", goerr.Wrap(ErrModelUnavailable, "empty model output")
	}
	return answer, nil
}

func (g *Gollem) Embed(ctx context.Context, text string) []float32 {
	embeddings, err := g.client.GenerateEmbedding(ctx, g.dimension, []string{text})
	if err != nil {
		logging.From(ctx).Warn("failed to generate embedding", "error", err.Error())
		return nil
	}
	if len(embeddings) == 0 {
		return nil
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result
}
