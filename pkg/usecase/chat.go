package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/service/llm"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

// ChatUseCase runs one question through retrieval, the model and the language guard
type ChatUseCase struct {
	sessions  *SessionManager
	retrieval *RetrievalUseCase
	tables    *TableAnswerer
	invoker   llm.Invoker
	script    *text.Script
	config    ChatConfig
}

func NewChatUseCase(sessions *SessionManager, retrieval *RetrievalUseCase, tables *TableAnswerer, invoker llm.Invoker, script *text.Script, cfg ChatConfig) *ChatUseCase {
	return &ChatUseCase{
		sessions:  sessions,
		retrieval: retrieval,
		tables:    tables,
		invoker:   invoker,
		script:    script,
		config:    cfg,
	}
}

// Ask answers question within sessionID, creating the session when it is empty or unknown.
// Model failures never surface as errors; persistence failures do.
func (uc *ChatUseCase) Ask(ctx context.Context, question string, sessionID model.SessionID) (*model.ChatReply, error) {
	question = text.NormalizeWhitespace(question)
	if question == "" {
		return nil, goerr.Wrap(ErrEmptyQuestion, "chat request rejected")
	}

	started := time.Now()
	defer func() { metrics.ChatLatency.Observe(time.Since(started).Seconds()) }()

	if sessionID = model.SessionID(strings.TrimSpace(string(sessionID))); sessionID == "" {
		sessionID = model.NewSessionID()
	}
	unlock := uc.sessions.Lock(sessionID)
	defer unlock()

	// Session writes ignore request cancellation. A stored question always gets its answer stored.
	persistCtx := context.WithoutCancel(ctx)

	session, err := uc.sessions.EnsureSession(persistCtx, sessionID, question)
	if err != nil {
		return nil, err
	}
	logger := logging.From(ctx).With("session_id", session.ID)
	ctx = logging.With(ctx, logger)
	persistCtx = logging.With(persistCtx, logger)

	history, err := uc.sessions.History(persistCtx, session.ID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.sessions.AppendTurn(persistCtx, session.ID, types.RoleUser, question, nil); err != nil {
		return nil, err
	}

	retrieval := uc.retrieval.BuildContext(ctx, question)
	answer, path := uc.answer(ctx, question, history, retrieval)

	metadata := &model.MessageMetadata{
		Context:    retrieval.Context,
		WebResults: retrieval.WebResults,
		Path:       path,
	}
	if _, err := uc.sessions.AppendTurn(persistCtx, session.ID, types.RoleAssistant, answer, metadata); err != nil {
		return nil, err
	}
	uc.sessions.Refresh(persistCtx, session.ID)

	metrics.AnswerPath.WithLabelValues(string(path)).Inc()
	logger.Info("chat turn answered",
		"path", path,
		"context", len(retrieval.Context),
		"web", len(retrieval.WebResults),
		"duration", time.Since(started))

	return &model.ChatReply{
		Answer:     answer,
		SessionID:  session.ID,
		Context:    retrieval.Context,
		WebResults: retrieval.WebResults,
		Path:       path,
	}, nil
}

func (uc *ChatUseCase) answer(ctx context.Context, question string, history []*model.ChatMessage, r *Retrieval) (string, model.AnswerPath) {
	direct, ok, err := uc.tables.Answer(ctx, question)
	if err != nil {
		degraded(ctx, metrics.CapabilityStore, "table-answer", err)
	} else if ok {
		return direct, model.AnswerPathTable
	}

	path := model.AnswerPathModel
	raw, err := uc.complete(ctx, question, history, r)
	if err != nil {
		logging.From(ctx).Warn("model unavailable, using fallback answer",
			"capability", metrics.CapabilityModel,
			"error", err.Error())
		metrics.Degraded.WithLabelValues(metrics.CapabilityModel).Inc()
		raw, path = FallbackAnswer(r.Context, r.WebResults), model.AnswerPathFallback
	}

	answer, kept := EnforceLanguage(uc.script, raw, r.Context, r.WebResults)
	if !kept && path == model.AnswerPathModel {
		path = model.AnswerPathSanitized
	}
	return answer, path
}

func (uc *ChatUseCase) complete(ctx context.Context, question string, history []*model.ChatMessage, r *Retrieval) (string, error) {
	prompt, err := BuildPrompt(question, model.TailMessages(history, uc.config.PromptHistory), r.Context, r.WebResults)
	if err != nil {
		return "", err
	}
	return uc.invoker.Complete(ctx, prompt.System, prompt.User)
}
