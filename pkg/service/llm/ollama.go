package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/safe"
)

const (
	DefaultOllamaURL            = "http://localhost:11434"
	DefaultOllamaChatModel      = "aya:23"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
)

const ollamaNumCtx = 4096

// Ollama talks to an Ollama server over its HTTP API
type Ollama struct {
	baseURL        string
	chatModel      string
	embeddingModel string
	timeout        time.Duration
	httpClient     *http.Client
}

var _ Invoker = &Ollama{}

type OllamaOption func(*Ollama)

func WithOllamaChatModel(m string) OllamaOption {
	return func(o *Ollama) {
		o.chatModel = m
	}
}

func WithOllamaEmbeddingModel(m string) OllamaOption {
	return func(o *Ollama) {
		o.embeddingModel = m
	}
}

func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(o *Ollama) {
		o.timeout = d
	}
}

func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(o *Ollama) {
		o.httpClient = c
	}
}

func NewOllama(baseURL string, opts ...OllamaOption) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	o := &Ollama{
		baseURL:        strings.TrimRight(baseURL, "/"),
		chatModel:      DefaultOllamaChatModel,
		embeddingModel: DefaultOllamaEmbeddingModel,
		timeout:        DefaultTimeout,
		httpClient:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *Ollama) post(ctx context.Context, path string, reqBody, respBody any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return goerr.Wrap(err, "failed to create ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call ollama", goerr.V("path", path))
	}
	defer safe.DrainClose(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New(fmt.Sprintf("ollama returned status %d", resp.StatusCode),
			goerr.V("path", path),
			goerr.V("body", string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return goerr.Wrap(err, "failed to decode ollama response", goerr.V("path", path))
	}
	return nil
}

func (o *Ollama) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := ollamaChatRequest{
		Model: o.chatModel,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": Temperature,
			"top_p":       TopP,
			"num_ctx":     ollamaNumCtx,
		},
	}

	var resp ollamaChatResponse
	if err := o.post(ctx, "/api/chat", req, &resp); err != nil {
		return "", unavailable(err, "ollama chat failed")
	}

	answer := strings.TrimSpace(resp.Message.Content)
	if answer == "" {
		return "", goerr.Wrap(ErrModelUnavailable, "empty model output", goerr.V("model", o.chatModel))
	}
	return answer, nil
}

func (o *Ollama) Embed(ctx context.Context, text string) []float32 {
	var resp ollamaEmbeddingResponse
	req := ollamaEmbeddingRequest{Model: o.embeddingModel, Prompt: text}
	if err := o.post(ctx, "/api/embeddings", req, &resp); err != nil {
		logging.From(ctx).Warn("failed to generate embedding",
			"model", o.embeddingModel,
			"error", err.Error())
		return nil
	}
	return resp.Embedding
}
