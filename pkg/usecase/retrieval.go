package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/service/websearch"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
	"golang.org/x/sync/errgroup"
)

// Fallback titles for records whose title is empty after sanitizing
const (
	untitledNote  = "הערה"
	untitledGuide = "מדריך"
	untitledTask  = "משימה"
)

// Retrieval is the material one chat turn may draw on
type Retrieval struct {
	Context    []model.ContextChunk
	WebResults []model.WebResult
}

// RetrievalUseCase fuses keyword, table, vector and web results into one context set
type RetrievalUseCase struct {
	content    interfaces.ContentRepository
	embeddings *EmbeddingUseCase
	web        websearch.Searcher
	webMode    websearch.Mode
	caps       *Capabilities
	script     *text.Script
	config     ChatConfig
}

func NewRetrievalUseCase(content interfaces.ContentRepository, embeddings *EmbeddingUseCase, web websearch.Searcher, webMode websearch.Mode, caps *Capabilities, script *text.Script, cfg ChatConfig) *RetrievalUseCase {
	return &RetrievalUseCase{
		content:    content,
		embeddings: embeddings,
		web:        web,
		webMode:    webMode,
		caps:       caps,
		script:     script,
		config:     cfg,
	}
}

func (uc *RetrievalUseCase) chunk(title, fallbackTitle, source, content string) model.ContextChunk {
	t := uc.script.Restrict(title)
	if t == "" {
		t = fallbackTitle
	}
	return model.ContextChunk{
		Title:   t,
		Source:  source,
		Content: uc.script.Restrict(content),
	}
}

func degraded(ctx context.Context, capability, stage string, err error) {
	logging.From(ctx).Warn("retrieval stage failed, continuing without it",
		"capability", capability,
		"stage", stage,
		"error", err.Error())
	metrics.Degraded.WithLabelValues(capability).Inc()
}

// BuildContext gathers context for question. Stage failures are logged and leave that stage
// empty; the result never carries more than the configured context limit.
func (uc *RetrievalUseCase) BuildContext(ctx context.Context, question string) *Retrieval {
	term := text.Truncate(question, uc.config.KeywordTermLength)

	var (
		tables []model.ContextChunk
		notes  []model.ContextChunk
		guides []model.ContextChunk
		tasks  []model.ContextChunk
		vector []model.ContextChunk
		web    []model.WebResult
	)

	// Stages never return errors so one failing read does not cancel the others
	var eg errgroup.Group
	eg.Go(func() error {
		tables = uc.tableStage(ctx, term)
		return nil
	})
	eg.Go(func() error {
		found, err := uc.content.SearchNotes(ctx, term, uc.config.KeywordLimit)
		if err != nil {
			degraded(ctx, metrics.CapabilityStore, "notes", err)
			return nil
		}
		for _, n := range found {
			notes = append(notes, uc.chunk(n.Title, untitledNote, model.SourceNote, text.StripMarkup(n.Content)))
		}
		return nil
	})
	eg.Go(func() error {
		found, err := uc.content.SearchGuides(ctx, term, uc.config.KeywordLimit)
		if err != nil {
			degraded(ctx, metrics.CapabilityStore, "guides", err)
			return nil
		}
		for _, g := range found {
			source := model.SourceGuide
			if g.CategoryName != "" {
				source += " · " + g.CategoryName
			}
			guides = append(guides, uc.chunk(g.Title, untitledGuide, source, text.StripMarkup(g.Content)))
		}
		return nil
	})
	eg.Go(func() error {
		found, err := uc.content.SearchTasks(ctx, term, uc.config.KeywordLimit)
		if err != nil {
			degraded(ctx, metrics.CapabilityStore, "tasks", err)
			return nil
		}
		for _, t := range found {
			tasks = append(tasks, uc.chunk(t.Title, untitledTask, model.SourceTask, taskContent(t)))
		}
		return nil
	})
	eg.Go(func() error {
		for _, hit := range uc.embeddings.Search(ctx, question, uc.config.VectorLimit) {
			et := hit.EntityType.String()
			vector = append(vector, model.ContextChunk{
				Title:   et + "#" + hit.EntityID,
				Source:  "vector · " + et,
				Content: uc.script.Restrict(hit.Content),
			})
		}
		return nil
	})
	eg.Go(func() error {
		web = uc.webStage(ctx, question)
		return nil
	})
	_ = eg.Wait()

	merged := mergeChunks(uc.config.ContextLimit, tables, notes, guides, tasks, vector)

	logging.From(ctx).Debug("context built",
		"tables", len(tables),
		"notes", len(notes),
		"guides", len(guides),
		"tasks", len(tasks),
		"vector", len(vector),
		"web", len(web),
		"context", len(merged))

	return &Retrieval{Context: merged, WebResults: web}
}

func taskContent(t *model.Task) string {
	steps := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = strconv.Itoa(i+1) + ". " + s.Title
	}
	return text.StripMarkup(t.Content) + "\nשלבים: " + strings.Join(steps, " ")
}

func (uc *RetrievalUseCase) tableStage(ctx context.Context, term string) []model.ContextChunk {
	recent, err := uc.content.ListRecentTables(ctx, uc.config.RecentTables)
	if err != nil {
		degraded(ctx, metrics.CapabilityStore, "tables", err)
		return nil
	}

	selected := selectTables(recent, term, uc.config.MatchingTables, uc.config.FallbackTables)
	chunks := make([]model.ContextChunk, 0, len(selected))
	for _, t := range selected {
		chunks = append(chunks, uc.chunk(t.Name, defaultTableName, model.SourceTable,
			summarizeTable(uc.script, t, uc.config.TableSampleRows)))
	}
	return chunks
}

func (uc *RetrievalUseCase) webStage(ctx context.Context, question string) []model.WebResult {
	if !uc.caps.Web() || uc.web == nil || !websearch.ShouldSearch(uc.webMode, question) {
		return nil
	}

	results, err := uc.web.Search(ctx, question)
	if err != nil {
		degraded(ctx, metrics.CapabilityWeb, "web", err)
		return nil
	}
	return results[:min(len(results), uc.config.WebLimit)]
}

// mergeChunks concatenates groups in order, drops repeated (title, source) pairs and keeps at
// most limit chunks.
func mergeChunks(limit int, groups ...[]model.ContextChunk) []model.ContextChunk {
	type key struct{ title, source string }
	seen := make(map[key]struct{})
	merged := make([]model.ContextChunk, 0, limit)

	for _, group := range groups {
		for _, c := range group {
			if len(merged) >= limit {
				return merged
			}
			k := key{c.Title, c.Source}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}
