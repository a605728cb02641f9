package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/taskdesk/taskdesk/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the model provider used for answers and embeddings
type LLM struct {
	provider       string
	chatModel      string
	embeddingModel string
	timeout        time.Duration

	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	ollamaURL      string
}

// Flags returns CLI flags for LLM configuration
func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Category:    "LLM",
			Usage:       "Model provider (none, gemini, openai, ollama)",
			Value:       "ollama",
			Sources:     cli.EnvVars("TASKDESK_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "llm-chat-model",
			Category:    "LLM",
			Usage:       "Chat model name (provider default when empty)",
			Sources:     cli.EnvVars("TASKDESK_LLM_CHAT_MODEL"),
			Destination: &x.chatModel,
		},
		&cli.StringFlag{
			Name:        "llm-embedding-model",
			Category:    "LLM",
			Usage:       "Embedding model name, ollama only (provider default when empty)",
			Sources:     cli.EnvVars("TASKDESK_LLM_EMBEDDING_MODEL"),
			Destination: &x.embeddingModel,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Category:    "LLM",
			Usage:       "Deadline of one completion call",
			Value:       llm.DefaultTimeout,
			Sources:     cli.EnvVars("TASKDESK_LLM_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Category:    "LLM",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("TASKDESK_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Category:    "LLM",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("TASKDESK_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Category:    "LLM",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("TASKDESK_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Category:    "LLM",
			Usage:       "Ollama base URL",
			Value:       llm.DefaultOllamaURL,
			Sources:     cli.EnvVars("TASKDESK_OLLAMA_URL"),
			Destination: &x.ollamaURL,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (x *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", x.provider),
		slog.String("chat_model", x.chatModel),
		slog.String("embedding_model", x.embeddingModel),
		slog.Duration("timeout", x.timeout),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.Bool("openai_api_key_set", x.openaiAPIKey != ""),
		slog.String("ollama_url", x.ollamaURL),
	}
}

// Configure builds the Invoker for the configured provider. Provider "none" yields llm.Disabled,
// which sends every chat turn down the fallback path.
func (x *LLM) Configure(ctx context.Context, dimension int) (llm.Invoker, error) {
	switch x.provider {
	case "none", "":
		return llm.Disabled{}, nil

	case "ollama":
		opts := []llm.OllamaOption{llm.WithOllamaTimeout(x.timeout)}
		if x.chatModel != "" {
			opts = append(opts, llm.WithOllamaChatModel(x.chatModel))
		}
		if x.embeddingModel != "" {
			opts = append(opts, llm.WithOllamaEmbeddingModel(x.embeddingModel))
		}
		return llm.NewOllama(x.ollamaURL, opts...), nil

	case "gemini", "openai":
		client, err := x.gollemClient(ctx)
		if err != nil {
			return nil, err
		}
		invoker, err := llm.NewGollem(client,
			llm.WithGollemTimeout(x.timeout),
			llm.WithGollemEmbeddingDimension(dimension),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create LLM invoker")
		}
		return invoker, nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "invalid llm provider", goerr.V(BackendKey, x.provider))
	}
}

func (x *LLM) gollemClient(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "gemini":
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingRequired, "gemini-project is required for gemini provider",
				goerr.V(FlagKey, "gemini-project"))
		}
		var opts []gemini.Option
		if x.chatModel != "" {
			opts = append(opts, gemini.WithModel(x.chatModel))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	default:
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingRequired, "openai-api-key is required for openai provider",
				goerr.V(FlagKey, "openai-api-key"))
		}
		var opts []openai.Option
		if x.chatModel != "" {
			opts = append(opts, openai.WithModel(x.chatModel))
		}
		client, err := openai.New(ctx, x.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil
	}
}
