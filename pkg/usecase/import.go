package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/model/config"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
)

// ImportUseCase writes seed records into the content store. It is the only write path for
// collaborator records.
type ImportUseCase struct {
	content interfaces.ContentRepository
}

func NewImportUseCase(content interfaces.ContentRepository) *ImportUseCase {
	return &ImportUseCase{content: content}
}

// ImportResult counts the records written per kind
type ImportResult struct {
	Notes     int
	Guides    int
	Tasks     int
	Templates int
	Favorites int
	Tables    int
}

// Import upserts every record of seed. Records without an ID get a generated one, records
// without UpdatedAt are stamped with the import time.
func (uc *ImportUseCase) Import(ctx context.Context, seed *config.Seed) (*ImportResult, error) {
	now := time.Now().UTC()
	stamp := func(id *string, updated *time.Time) {
		if *id == "" {
			*id = model.NewContentID()
		}
		if updated.IsZero() {
			*updated = now
		}
	}

	result := &ImportResult{}
	for _, n := range seed.Notes {
		stamp(&n.ID, &n.UpdatedAt)
		if err := uc.content.PutNote(ctx, n); err != nil {
			return result, goerr.Wrap(err, "failed to import note", goerr.V("id", n.ID))
		}
		result.Notes++
	}
	for _, g := range seed.Guides {
		stamp(&g.ID, &g.UpdatedAt)
		if err := uc.content.PutGuide(ctx, g); err != nil {
			return result, goerr.Wrap(err, "failed to import guide", goerr.V("id", g.ID))
		}
		result.Guides++
	}
	for _, t := range seed.Tasks {
		stamp(&t.ID, &t.UpdatedAt)
		if err := uc.content.PutTask(ctx, t); err != nil {
			return result, goerr.Wrap(err, "failed to import task", goerr.V("id", t.ID))
		}
		result.Tasks++
	}
	for _, tpl := range seed.Templates {
		stamp(&tpl.ID, &tpl.UpdatedAt)
		if err := uc.content.PutTemplate(ctx, tpl); err != nil {
			return result, goerr.Wrap(err, "failed to import template", goerr.V("id", tpl.ID))
		}
		result.Templates++
	}
	for _, f := range seed.Favorites {
		stamp(&f.ID, &f.UpdatedAt)
		if err := uc.content.PutFavorite(ctx, f); err != nil {
			return result, goerr.Wrap(err, "failed to import favorite", goerr.V("id", f.ID))
		}
		result.Favorites++
	}
	for _, t := range seed.Tables {
		stamp(&t.ID, &t.UpdatedAt)
		if err := uc.content.PutTable(ctx, t); err != nil {
			return result, goerr.Wrap(err, "failed to import table", goerr.V("id", t.ID), goerr.V("name", t.Name))
		}
		result.Tables++
	}

	logging.From(ctx).Info("seed imported",
		"notes", result.Notes,
		"guides", result.Guides,
		"tasks", result.Tasks,
		"templates", result.Templates,
		"favorites", result.Favorites,
		"tables", result.Tables)
	return result, nil
}
