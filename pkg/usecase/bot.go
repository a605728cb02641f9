package usecase

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

const (
	botResults      = 3
	botExtractRunes = 320

	// BotNoMatchAnswer is returned by the keyword bot when no record matches
	BotNoMatchAnswer = "לא מצאתי מידע רלוונטי במערכת."
)

// BotSource identifies one record the keyword bot answered from
type BotSource struct {
	Type     types.EntityType `json:"type"`
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Category string           `json:"category,omitempty"`
	Link     string           `json:"link,omitempty"`
	Score    int              `json:"score"`
}

// BotReply is the keyword bot answer
type BotReply struct {
	Answer  string      `json:"answer"`
	Sources []BotSource `json:"sources"`
}

// BotUseCase is the keyword-only bot over notes, guides and favorites. It never calls a model.
type BotUseCase struct {
	content interfaces.ContentRepository
}

func NewBotUseCase(content interfaces.ContentRepository) *BotUseCase {
	return &BotUseCase{content: content}
}

type botItem struct {
	source  BotSource
	content string
}

func (uc *BotUseCase) corpus(ctx context.Context) ([]botItem, error) {
	var items []botItem

	notes, err := uc.content.ListNotes(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes")
	}
	for _, n := range notes {
		items = append(items, botItem{
			source:  BotSource{Type: types.EntityNote, ID: n.ID, Title: n.Title},
			content: n.Content,
		})
	}

	guides, err := uc.content.ListGuides(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guides")
	}
	for _, g := range guides {
		items = append(items, botItem{
			source:  BotSource{Type: types.EntityGuide, ID: g.ID, Title: g.Title, Category: g.CategoryName},
			content: g.Content,
		})
	}

	favorites, err := uc.content.ListFavorites(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list favorites")
	}
	for _, f := range favorites {
		items = append(items, botItem{
			source:  BotSource{Type: types.EntityFavorite, ID: f.ID, Title: f.Title, Link: f.Link},
			content: f.Content,
		})
	}

	return items, nil
}

// Ask scores every record by the number of question terms it contains and answers with
// extracts of the best three.
func (uc *BotUseCase) Ask(ctx context.Context, question string) (*BotReply, error) {
	terms := strings.Fields(strings.ToLower(question))
	if len(terms) == 0 {
		return nil, goerr.Wrap(ErrEmptyQuestion, "bot request rejected")
	}

	items, err := uc.corpus(ctx)
	if err != nil {
		return nil, err
	}

	var scored []botItem
	for _, item := range items {
		haystack := strings.ToLower(item.source.Title + " " + item.content)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				item.source.Score++
			}
		}
		if item.source.Score > 0 {
			scored = append(scored, item)
		}
	}
	slices.SortStableFunc(scored, func(a, b botItem) int {
		return b.source.Score - a.source.Score
	})
	scored = scored[:min(len(scored), botResults)]

	reply := &BotReply{Answer: BotNoMatchAnswer, Sources: []BotSource{}}
	if len(scored) == 0 {
		return reply, nil
	}

	parts := make([]string, len(scored))
	for i, item := range scored {
		extract := text.Truncate(text.StripMarkup(item.content), botExtractRunes)
		if extract == "" {
			extract = "אין תמצית זמינה."
		}
		parts[i] = strconv.Itoa(i+1) + ". " + botLocation(item.source) + ".\nתמצית: " + extract
		reply.Sources = append(reply.Sources, item.source)
	}
	reply.Answer = strings.Join(parts, "\n\n")
	return reply, nil
}

func botLocation(s BotSource) string {
	switch s.Type {
	case types.EntityGuide:
		loc := `נמצא במודול "מדריכים", במדריך בשם "` + s.Title + `"`
		if s.Category != "" {
			loc += " (קטגוריה: " + s.Category + ")"
		}
		return loc
	case types.EntityFavorite:
		return `נמצא ב"מועדפים", בקישור "` + s.Title + `"`
	default:
		return `נמצא ב"מידע כללי", בהערה עם תוכן תואם`
	}
}
