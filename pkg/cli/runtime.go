package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/cli/config"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/usecase"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// runtimeConfig groups the flags every command that runs the pipeline needs
type runtimeConfig struct {
	repo  config.Repository
	llm   config.LLM
	cache config.Cache
	web   config.WebSearch
	chat  config.Chat
}

func (x *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.llm.Flags()...)
	flags = append(flags, x.cache.Flags()...)
	flags = append(flags, x.web.Flags()...)
	flags = append(flags, x.chat.Flags()...)
	return flags
}

func group(name string, attrs []slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// runtime is a configured pipeline. close releases the repository and cache connections.
type runtime struct {
	repo  interfaces.Repository
	uc    *usecase.UseCases
	close func()
}

func (x *runtimeConfig) build(ctx context.Context) (*runtime, error) {
	logging.Default().Info("Runtime configuration",
		group("repository", x.repo.LogAttrs()),
		group("llm", x.llm.LogAttrs()),
		group("cache", x.cache.LogAttrs()),
		group("web", x.web.LogAttrs()),
		group("chat", x.chat.LogAttrs()),
	)

	chatCfg, err := x.chat.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "invalid chat configuration")
	}

	invoker, err := x.llm.Configure(ctx, x.repo.Dimension())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure LLM")
	}

	searcher, mode, err := x.web.Configure()
	if err != nil {
		return nil, err
	}

	cache, closeCache, err := x.cache.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure history cache")
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		closeCache()
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	uc := usecase.New(repo,
		usecase.WithInvoker(invoker),
		usecase.WithHistoryCache(cache),
		usecase.WithWebSearch(searcher, mode),
		usecase.WithChatConfig(chatCfg),
		usecase.WithEmbeddingRateLimit(x.chat.EmbeddingRate()),
	)

	return &runtime{
		repo: repo,
		uc:   uc,
		close: func() {
			closeCache()
			if err := repo.Close(); err != nil {
				logging.Default().Error("failed to close repository", "error", err.Error())
			}
		},
	}, nil
}
