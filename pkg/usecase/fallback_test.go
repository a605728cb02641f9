package usecase_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/usecase"
)

func TestFallbackAnswer(t *testing.T) {
	t.Run("nothing retrieved", func(t *testing.T) {
		gt.Value(t, usecase.FallbackAnswer(nil, nil)).Equal(usecase.NoInformationAnswer)
	})

	t.Run("bullets are bounded", func(t *testing.T) {
		var chunks []model.ContextChunk
		for range 6 {
			chunks = append(chunks, model.ContextChunk{
				Title:   "הערה",
				Source:  "note",
				Content: strings.Repeat("א", 300),
			})
		}
		web := []model.WebResult{
			{Title: "w1", Snippet: strings.Repeat("ב", 200)},
			{Title: "w2", Snippet: "ג"},
			{Title: "w3", Snippet: "ד"},
		}

		lines := strings.Split(usecase.FallbackAnswer(chunks, web), "\n")
		gt.A(t, lines).Length(1 + 4 + 2 + 1)
		gt.Value(t, lines[0]).Equal("מצאתי מידע קשור במערכת:")
		gt.Value(t, lines[1]).Equal("• הערה (note): " + strings.Repeat("א", 200))
		gt.Value(t, lines[5]).Equal("• w1: " + strings.Repeat("ב", 160))
		gt.Value(t, lines[6]).Equal("• w2: ג")
		gt.String(t, lines[7]).Contains("שלח את השאלה שוב")
	})

	t.Run("always non-empty", func(t *testing.T) {
		inputs := [][]model.ContextChunk{
			nil,
			{{}},
			{{Title: "x", Source: "y", Content: ""}},
		}
		for _, chunks := range inputs {
			gt.String(t, usecase.FallbackAnswer(chunks, nil)).NotEqual("")
		}
		gt.String(t, usecase.FallbackAnswer(nil, []model.WebResult{{}})).NotEqual("")
	})
}
