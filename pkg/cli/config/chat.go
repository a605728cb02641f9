package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Chat holds the tunables of the chat pipeline
type Chat struct {
	historyWindow int
	promptHistory int
	titleLength   int
	vectorLimit   int
	contextLimit  int
	chunkSize     int
	chunkOverlap  int
	embedRate     float64
}

func (x *Chat) Flags() []cli.Flag {
	def := usecase.DefaultChatConfig()
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "history-window",
			Category:    "Chat",
			Usage:       "Recent messages kept in the history cache",
			Value:       def.HistoryWindow,
			Sources:     cli.EnvVars("TASKDESK_HISTORY_WINDOW"),
			Destination: &x.historyWindow,
		},
		&cli.IntFlag{
			Name:        "prompt-history",
			Category:    "Chat",
			Usage:       "Recent messages rendered into the prompt",
			Value:       def.PromptHistory,
			Sources:     cli.EnvVars("TASKDESK_PROMPT_HISTORY"),
			Destination: &x.promptHistory,
		},
		&cli.IntFlag{
			Name:        "title-length",
			Category:    "Chat",
			Usage:       "Maximum length of a session title",
			Value:       def.TitleLength,
			Sources:     cli.EnvVars("TASKDESK_TITLE_LENGTH"),
			Destination: &x.titleLength,
		},
		&cli.IntFlag{
			Name:        "vector-limit",
			Category:    "Chat",
			Usage:       "Nearest embedding chunks added to the context",
			Value:       def.VectorLimit,
			Sources:     cli.EnvVars("TASKDESK_VECTOR_LIMIT"),
			Destination: &x.vectorLimit,
		},
		&cli.IntFlag{
			Name:        "context-limit",
			Category:    "Chat",
			Usage:       "Context chunks passed to the prompt",
			Value:       def.ContextLimit,
			Sources:     cli.EnvVars("TASKDESK_CONTEXT_LIMIT"),
			Destination: &x.contextLimit,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Category:    "Chat",
			Usage:       "Characters per embedding chunk",
			Value:       def.ChunkSize,
			Sources:     cli.EnvVars("TASKDESK_CHUNK_SIZE"),
			Destination: &x.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Category:    "Chat",
			Usage:       "Characters shared by consecutive chunks",
			Value:       def.ChunkOverlap,
			Sources:     cli.EnvVars("TASKDESK_CHUNK_OVERLAP"),
			Destination: &x.chunkOverlap,
		},
		&cli.FloatFlag{
			Name:        "embedding-rate",
			Category:    "Chat",
			Usage:       "Embedding calls per second during a rebuild (0 for unlimited)",
			Sources:     cli.EnvVars("TASKDESK_EMBEDDING_RATE"),
			Destination: &x.embedRate,
		},
	}
}

func (x *Chat) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("history_window", x.historyWindow),
		slog.Int("prompt_history", x.promptHistory),
		slog.Int("title_length", x.titleLength),
		slog.Int("vector_limit", x.vectorLimit),
		slog.Int("context_limit", x.contextLimit),
		slog.Int("chunk_size", x.chunkSize),
		slog.Int("chunk_overlap", x.chunkOverlap),
		slog.Float64("embedding_rate", x.embedRate),
	}
}

// EmbeddingRate returns the configured embedding pacing
func (x *Chat) EmbeddingRate() float64 {
	return x.embedRate
}

// Configure validates the flags and overlays them on the defaults
func (x *Chat) Configure() (usecase.ChatConfig, error) {
	cfg := usecase.DefaultChatConfig()

	positive := map[string]int{
		"history-window": x.historyWindow,
		"prompt-history": x.promptHistory,
		"title-length":   x.titleLength,
		"vector-limit":   x.vectorLimit,
		"context-limit":  x.contextLimit,
		"chunk-size":     x.chunkSize,
	}
	for name, v := range positive {
		if v <= 0 {
			return cfg, goerr.New("value must be positive", goerr.V(FlagKey, name), goerr.V("value", v))
		}
	}
	if x.chunkOverlap < 0 || x.chunkOverlap >= x.chunkSize {
		return cfg, goerr.New("chunk-overlap must be in [0, chunk-size)",
			goerr.V("chunk_overlap", x.chunkOverlap), goerr.V("chunk_size", x.chunkSize))
	}
	if x.embedRate < 0 {
		return cfg, goerr.New("embedding-rate must not be negative", goerr.V("value", x.embedRate))
	}

	cfg.HistoryWindow = x.historyWindow
	cfg.PromptHistory = x.promptHistory
	cfg.TitleLength = x.titleLength
	cfg.VectorLimit = x.vectorLimit
	cfg.ContextLimit = x.contextLimit
	cfg.ChunkSize = x.chunkSize
	cfg.ChunkOverlap = x.chunkOverlap
	return cfg, nil
}
