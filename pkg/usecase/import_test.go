package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/model/config"
	"github.com/taskdesk/taskdesk/pkg/repository/memory"
	"github.com/taskdesk/taskdesk/pkg/usecase"
)

func TestImportUseCase_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("imports every kind", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewImportUseCase(repo.Content())

		seed := &config.Seed{
			Notes:     []*model.Note{{Title: "הערה"}},
			Guides:    []*model.Guide{{ID: "g1", Title: "מדריך", CategoryName: "כללי"}},
			Tasks:     []*model.Task{{Title: "משימה", Steps: []model.Step{{Title: "צעד"}}}},
			Templates: []*model.Template{{Name: "תבנית"}},
			Favorites: []*model.Favorite{{Title: "קישור", Link: "https://example.com"}},
			Tables:    []*model.Table{model.NewTable("", "טבלה", []string{"א"}, [][]any{{1}})},
		}

		result, err := uc.Import(ctx, seed)
		gt.NoError(t, err).Required()
		gt.Value(t, *result).Equal(usecase.ImportResult{Notes: 1, Guides: 1, Tasks: 1, Templates: 1, Favorites: 1, Tables: 1})

		notes, err := repo.Content().ListNotes(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, notes).Length(1)
		gt.String(t, notes[0].ID).NotEqual("")
		gt.Bool(t, notes[0].UpdatedAt.IsZero()).False()

		tables, err := repo.Content().ListRecentTables(ctx, 0)
		gt.NoError(t, err).Required()
		gt.A(t, tables).Length(1)
	})

	t.Run("ragged table stops the import", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewImportUseCase(repo.Content())

		bad := &model.Table{Name: "שבורה", Columns: []string{"א", "ב"}, Rows: [][]model.CellValue{{model.StringCell("x")}}}
		result, err := uc.Import(ctx, &config.Seed{
			Notes:  []*model.Note{{Title: "הערה"}},
			Tables: []*model.Table{bad},
		})
		gt.Error(t, err).Is(model.ErrInvalidTable)
		gt.Number(t, result.Notes).Equal(1)
		gt.Number(t, result.Tables).Equal(0)
	})
}
