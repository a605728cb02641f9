package usecase

import (
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/service/llm"
	"github.com/taskdesk/taskdesk/pkg/service/websearch"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

type UseCases struct {
	repo          interfaces.Repository
	invoker       llm.Invoker
	cache         historycache.Cache
	web           websearch.Searcher
	webMode       websearch.Mode
	caps          *Capabilities
	config        ChatConfig
	script        *text.Script
	embeddingRate float64

	Chat      *ChatUseCase
	Sessions  *SessionManager
	Retrieval *RetrievalUseCase
	Embedding *EmbeddingUseCase
	Bot       *BotUseCase
	Import    *ImportUseCase
	Health    *HealthUseCase
}

type Option func(*UseCases)

func WithInvoker(invoker llm.Invoker) Option {
	return func(uc *UseCases) {
		uc.invoker = invoker
	}
}

func WithHistoryCache(cache historycache.Cache) Option {
	return func(uc *UseCases) {
		uc.cache = cache
	}
}

// WithWebSearch enables the web stage. A nil searcher leaves it disabled.
func WithWebSearch(searcher websearch.Searcher, mode websearch.Mode) Option {
	return func(uc *UseCases) {
		uc.web = searcher
		uc.webMode = mode
	}
}

func WithCapabilities(caps *Capabilities) Option {
	return func(uc *UseCases) {
		uc.caps = caps
	}
}

func WithChatConfig(cfg ChatConfig) Option {
	return func(uc *UseCases) {
		uc.config = cfg
	}
}

// WithScript sets the script answers are restricted to
func WithScript(script *text.Script) Option {
	return func(uc *UseCases) {
		uc.script = script
	}
}

func WithEmbeddingRateLimit(perSecond float64) Option {
	return func(uc *UseCases) {
		uc.embeddingRate = perSecond
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		invoker: llm.Disabled{},
		cache:   historycache.Noop{},
		webMode: websearch.ModeOff,
		config:  DefaultChatConfig(),
		script:  text.Hebrew,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.caps == nil {
		var cacheCheck CheckFunc
		if _, noop := uc.cache.(historycache.Noop); !noop {
			cacheCheck = uc.cache.Ping
		}
		uc.caps = NewCapabilities(repo.Embedding().Ensure, cacheCheck, uc.web != nil)
	}

	uc.Sessions = NewSessionManager(repo.Chat(), uc.cache, uc.caps, uc.config)
	uc.Embedding = NewEmbeddingUseCase(repo.Content(), repo.Embedding(), uc.invoker, uc.caps, uc.config,
		WithEmbeddingPacing(uc.embeddingRate))
	uc.Retrieval = NewRetrievalUseCase(repo.Content(), uc.Embedding, uc.web, uc.webMode, uc.caps, uc.script, uc.config)
	uc.Chat = NewChatUseCase(uc.Sessions, uc.Retrieval, NewTableAnswerer(repo.Content(), uc.script), uc.invoker, uc.script, uc.config)
	uc.Bot = NewBotUseCase(repo.Content())
	uc.Import = NewImportUseCase(repo.Content())
	uc.Health = NewHealthUseCase(repo, uc.cache, uc.caps)

	return uc
}
