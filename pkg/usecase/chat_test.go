package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/repository/memory"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/usecase"
)

func newUseCases(repo *memory.Memory, invoker *mockInvoker) *usecase.UseCases {
	return usecase.New(repo,
		usecase.WithInvoker(invoker),
		usecase.WithHistoryCache(historycache.NewMemory(time.Hour)),
	)
}

func TestChatUseCase_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("blank question writes nothing", func(t *testing.T) {
		repo := memory.New()
		uc := newUseCases(repo, &mockInvoker{})

		_, err := uc.Chat.Ask(ctx, "  \n ", "")
		gt.Error(t, err).Is(usecase.ErrEmptyQuestion)

		sessions, err := uc.Sessions.ListSessions(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, sessions).Length(0)
	})

	t.Run("model answer is persisted with context", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Content().PutNote(ctx, &model.Note{ID: "n1", Title: "חופשה", Content: "יש להגיש בקשה"})).Required()
		invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
			return "יש להגיש בקשה דרך המערכת. Thanks!", nil
		}}
		uc := newUseCases(repo, invoker)

		reply, err := uc.Chat.Ask(ctx, "חופשה", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Answer).Equal("יש להגיש בקשה דרך המערכת. !")
		gt.Value(t, reply.Path).Equal(model.AnswerPathModel)
		gt.A(t, reply.Context).Length(1)
		gt.String(t, invoker.lastPrompt()).Contains("1. חופשה (note)\nיש להגיש בקשה")

		msgs, err := uc.Sessions.Messages(ctx, reply.SessionID)
		gt.NoError(t, err).Required()
		gt.A(t, msgs).Length(2)
		gt.Value(t, msgs[0].Role).Equal(types.RoleUser)
		gt.Value(t, msgs[0].Content).Equal("חופשה")
		gt.Value(t, msgs[1].Role).Equal(types.RoleAssistant)
		gt.Value(t, msgs[1].Metadata.Context).Equal(reply.Context)
	})

	t.Run("foreign model output is sanitized", func(t *testing.T) {
		repo := memory.New()
		invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
			return "I do not know", nil
		}}
		uc := newUseCases(repo, invoker)

		reply, err := uc.Chat.Ask(ctx, "מה קורה?", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Answer).Equal(usecase.NoInformationAnswer)
		gt.Value(t, reply.Path).Equal(model.AnswerPathSanitized)
	})

	t.Run("empty store and failing model give the no information answer", func(t *testing.T) {
		repo := memory.New()
		uc := newUseCases(repo, &mockInvoker{})

		reply, err := uc.Chat.Ask(ctx, "מה קורה?", "")
		gt.NoError(t, err).Required()
		gt.A(t, reply.Context).Length(0)
		gt.Value(t, reply.Answer).Equal(usecase.NoInformationAnswer)
		gt.Value(t, reply.Path).Equal(model.AnswerPathFallback)
	})

	t.Run("model timeout with context falls back and persists", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Content().PutGuide(ctx, &model.Guide{ID: "g1", Title: "גיבוי", Content: "מגבים כל לילה"})).Required()
		uc := newUseCases(repo, &mockInvoker{})

		reply, err := uc.Chat.Ask(ctx, "גיבוי", "")
		gt.NoError(t, err).Required()
		gt.String(t, reply.Answer).NotEqual("")
		gt.String(t, reply.Answer).Contains("מגבים כל לילה")
		gt.Value(t, reply.Path).Equal(model.AnswerPathFallback)

		msgs, err := uc.Sessions.Messages(ctx, reply.SessionID)
		gt.NoError(t, err).Required()
		gt.A(t, msgs).Length(2)
		gt.Value(t, msgs[1].Content).Equal(reply.Answer)
	})

	t.Run("table question skips the model", func(t *testing.T) {
		repo := memory.New()
		putTable(t, repo, scoresTable(time.Now()))
		invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
			return "לא אמור להיקרא", nil
		}}
		uc := newUseCases(repo, invoker)

		reply, err := uc.Chat.Ask(ctx, "מה הציון הגבוה ביותר בטבלה?", "")
		gt.NoError(t, err).Required()
		gt.String(t, reply.Answer).Contains("95")
		gt.String(t, reply.Answer).Contains("יואב")
		gt.Value(t, reply.Path).Equal(model.AnswerPathTable)
		gt.A(t, invoker.prompts).Length(0)
	})

	t.Run("sequential turns share the session", func(t *testing.T) {
		repo := memory.New()
		invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
			return "בסדר", nil
		}}
		uc := newUseCases(repo, invoker)

		first, err := uc.Chat.Ask(ctx, "ראשונה", "")
		gt.NoError(t, err).Required()
		second, err := uc.Chat.Ask(ctx, "שנייה", first.SessionID)
		gt.NoError(t, err).Required()
		gt.Value(t, second.SessionID).Equal(first.SessionID)
		gt.String(t, invoker.lastPrompt()).Contains("היסטוריה:\nUser: ראשונה\nAssistant: בסדר")

		msgs, err := uc.Sessions.Messages(ctx, first.SessionID)
		gt.NoError(t, err).Required()
		gt.A(t, msgs).Length(4)
		gt.Value(t, msgs[0].Content).Equal("ראשונה")
		gt.Value(t, msgs[2].Content).Equal("שנייה")

		history, err := uc.Sessions.History(ctx, first.SessionID)
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(4)
	})

	t.Run("concurrent turns on one session do not interleave", func(t *testing.T) {
		repo := memory.New()
		invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
			return "תשובה", nil
		}}
		uc := newUseCases(repo, invoker)

		first, err := uc.Chat.Ask(ctx, "פתיחה", "")
		gt.NoError(t, err).Required()

		const turns = 5
		var wg sync.WaitGroup
		for i := range turns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := uc.Chat.Ask(ctx, fmt.Sprintf("שאלה %d", i), first.SessionID)
				gt.NoError(t, err)
			}()
		}
		wg.Wait()

		msgs, err := uc.Sessions.Messages(ctx, first.SessionID)
		gt.NoError(t, err).Required()
		gt.A(t, msgs).Length(2 * (turns + 1))
		for i := 0; i < len(msgs); i += 2 {
			gt.Value(t, msgs[i].Role).Equal(types.RoleUser)
			gt.Value(t, msgs[i+1].Role).Equal(types.RoleAssistant)
		}
	})
}

// ctxAwareRepo fails chat writes once the request context is done, like a remote store would
type ctxAwareRepo struct {
	*memory.Memory
}

func (r *ctxAwareRepo) Chat() interfaces.ChatRepository {
	return &ctxAwareChat{ChatRepository: r.Memory.Chat()}
}

type ctxAwareChat struct {
	interfaces.ChatRepository
}

func (c *ctxAwareChat) AppendMessage(ctx context.Context, msg *model.ChatMessage, titleHint string) (*model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.ChatRepository.AppendMessage(ctx, msg, titleHint)
}

func TestChatUseCase_Ask_RequestCancelledDuringModelCall(t *testing.T) {
	repo := &ctxAwareRepo{Memory: memory.New()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	invoker := &mockInvoker{completeFn: func(system, user string) (string, error) {
		cancel()
		return "", context.Canceled
	}}
	uc := usecase.New(repo,
		usecase.WithInvoker(invoker),
		usecase.WithHistoryCache(historycache.NewMemory(time.Hour)),
	)

	reply, err := uc.Chat.Ask(ctx, "מה שעות הפעילות?", "")
	gt.NoError(t, err).Required()
	gt.Value(t, reply.Path).Equal(model.AnswerPathFallback)

	msgs, err := uc.Sessions.Messages(context.Background(), reply.SessionID)
	gt.NoError(t, err).Required()
	gt.A(t, msgs).Length(2)
	gt.Value(t, msgs[0].Role).Equal(types.RoleUser)
	gt.Value(t, msgs[1].Role).Equal(types.RoleAssistant)
	gt.Value(t, msgs[1].Content).Equal(reply.Answer)
}
