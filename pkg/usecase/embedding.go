package usecase

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/service/llm"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
	"golang.org/x/time/rate"
)

const defaultGuideCategory = "כללי"

// EmbeddingUseCase builds and queries the vector index over collaborator content
type EmbeddingUseCase struct {
	content    interfaces.ContentRepository
	embeddings interfaces.EmbeddingRepository
	invoker    llm.Invoker
	caps       *Capabilities
	limiter    *rate.Limiter
	config     ChatConfig

	rebuilding sync.Mutex
}

// EmbeddingOption configures EmbeddingUseCase
type EmbeddingOption func(*EmbeddingUseCase)

// WithEmbeddingPacing paces embedding calls to perSecond requests. Zero disables pacing.
func WithEmbeddingPacing(perSecond float64) EmbeddingOption {
	return func(uc *EmbeddingUseCase) {
		if perSecond > 0 {
			uc.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewEmbeddingUseCase(content interfaces.ContentRepository, embeddings interfaces.EmbeddingRepository, invoker llm.Invoker, caps *Capabilities, cfg ChatConfig, opts ...EmbeddingOption) *EmbeddingUseCase {
	uc := &EmbeddingUseCase{
		content:    content,
		embeddings: embeddings,
		invoker:    invoker,
		caps:       caps,
		config:     cfg,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type embeddingPayload struct {
	entityType types.EntityType
	entityID   string
	content    string
}

func renderSteps(steps []model.Step) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		line := strconv.Itoa(i+1) + ". " + s.Title
		if s.Link != "" {
			line += " (" + s.Link + ")"
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func tablePayload(t *model.Table) string {
	name := t.Name
	if name == "" {
		name = defaultTableName
	}
	lines := []string{
		name,
		"עמודות: " + strings.Join(t.Columns, ", "),
		"דגימה:",
	}
	for i, row := range t.Rows[:min(len(t.Rows), directAnswerRows)] {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.String()
		}
		lines = append(lines, strconv.Itoa(i+1)+". "+strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

// collectPayloads reads every collaborator record and renders its embedding text
func (uc *EmbeddingUseCase) collectPayloads(ctx context.Context) ([]embeddingPayload, error) {
	var payloads []embeddingPayload
	add := func(et types.EntityType, id string, parts ...string) {
		payloads = append(payloads, embeddingPayload{entityType: et, entityID: id, content: strings.Join(parts, "\n")})
	}

	notes, err := uc.content.ListNotes(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes")
	}
	for _, n := range notes {
		add(types.EntityNote, n.ID, n.Title, n.Content)
	}

	guides, err := uc.content.ListGuides(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guides")
	}
	for _, g := range guides {
		category := g.CategoryName
		if category == "" {
			category = defaultGuideCategory
		}
		add(types.EntityGuide, g.ID, g.Title, "קטגוריה: "+category, g.Content)
	}

	favorites, err := uc.content.ListFavorites(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list favorites")
	}
	for _, f := range favorites {
		add(types.EntityFavorite, f.ID, f.Title, f.Link, f.Content)
	}

	tasks, err := uc.content.ListTasks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks")
	}
	for _, t := range tasks {
		add(types.EntityTask, t.ID, t.Title, t.Content, "שלבים: "+renderSteps(t.Steps))
	}

	templates, err := uc.content.ListTemplates(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list templates")
	}
	for _, tpl := range templates {
		add(types.EntityTemplate, tpl.ID, tpl.Name, "שלבים מומלצים:", renderSteps(tpl.Steps))
	}

	tables, err := uc.content.ListRecentTables(ctx, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tables")
	}
	for _, t := range tables {
		add(types.EntityTable, t.ID, tablePayload(t))
	}

	return payloads, nil
}

// embedChunks splits content and embeds every chunk. Chunks whose embedding comes back empty are
// skipped.
func (uc *EmbeddingUseCase) embedChunks(ctx context.Context, et types.EntityType, id, content string) ([]*model.EmbeddingRecord, error) {
	var records []*model.EmbeddingRecord
	for chunk := range text.Chunk(text.StripMarkup(content), uc.config.ChunkSize, uc.config.ChunkOverlap) {
		if uc.limiter != nil {
			if err := uc.limiter.Wait(ctx); err != nil {
				return nil, goerr.Wrap(err, "embedding rate limiter aborted")
			}
		}

		vector := uc.invoker.Embed(ctx, chunk)
		if len(vector) == 0 {
			logging.From(ctx).Warn("skipping chunk with empty embedding",
				"entity_type", et,
				"entity_id", id)
			metrics.EmbeddingSkipped.Inc()
			continue
		}

		records = append(records, &model.EmbeddingRecord{
			ID:         model.NewEmbeddingID(),
			EntityType: et,
			EntityID:   id,
			Content:    chunk,
			Embedding:  vector,
		})
	}
	return records, nil
}

// RebuildAll re-embeds every collaborator record and swaps the whole index. At most one rebuild
// runs at a time; a concurrent call fails with ErrRebuildInProgress.
func (uc *EmbeddingUseCase) RebuildAll(ctx context.Context) (int, error) {
	if !uc.rebuilding.TryLock() {
		return 0, goerr.Wrap(ErrRebuildInProgress, "rebuild rejected")
	}
	defer uc.rebuilding.Unlock()

	if !uc.caps.Vector(ctx) {
		return 0, goerr.Wrap(ErrVectorUnavailable, "vector store is not ready")
	}

	payloads, err := uc.collectPayloads(ctx)
	if err != nil {
		return 0, err
	}

	var records []*model.EmbeddingRecord
	for _, p := range payloads {
		chunks, err := uc.embedChunks(ctx, p.entityType, p.entityID, p.content)
		if err != nil {
			return 0, err
		}
		records = append(records, chunks...)
	}

	if err := uc.embeddings.Replace(ctx, records); err != nil {
		return 0, goerr.Wrap(err, "failed to replace embeddings", goerr.V("records", len(records)))
	}

	metrics.EmbeddingRecords.Set(float64(len(records)))
	logging.From(ctx).Info("embeddings rebuilt",
		"payloads", len(payloads),
		"records", len(records))
	return len(records), nil
}

// AddAdHoc embeds free text outside the collaborator collections and returns the number of
// records written. It writes nothing when the vector store is unavailable.
func (uc *EmbeddingUseCase) AddAdHoc(ctx context.Context, title, content string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, goerr.Wrap(ErrEmptyContent, "ad-hoc embedding rejected")
	}
	if !uc.caps.Vector(ctx) {
		return 0, nil
	}

	body := content
	if title = strings.TrimSpace(title); title != "" {
		body = title + "\n" + content
	}

	records, err := uc.embedChunks(ctx, types.EntityAdHoc, model.NewContentID(), body)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := uc.embeddings.Add(ctx, records); err != nil {
		return 0, goerr.Wrap(err, "failed to add ad-hoc embeddings", goerr.V("records", len(records)))
	}
	return len(records), nil
}

// Search returns the records nearest to query. Every failure degrades to an empty result.
func (uc *EmbeddingUseCase) Search(ctx context.Context, query string, limit int) []*model.EmbeddingHit {
	if !uc.caps.Vector(ctx) {
		return nil
	}

	vector := uc.invoker.Embed(ctx, query)
	if len(vector) == 0 {
		return nil
	}

	hits, err := uc.embeddings.Search(ctx, vector, limit)
	if err != nil {
		logging.From(ctx).Warn("vector search failed, continuing without it",
			"capability", metrics.CapabilityVector,
			"error", err.Error())
		metrics.Degraded.WithLabelValues(metrics.CapabilityVector).Inc()
		return nil
	}
	return hits
}
