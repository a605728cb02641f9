package config

import "github.com/taskdesk/taskdesk/pkg/domain/model"

// Seed is a batch of collaborator records loaded from a seed file
type Seed struct {
	Notes     []*model.Note
	Guides    []*model.Guide
	Tasks     []*model.Task
	Templates []*model.Template
	Favorites []*model.Favorite
	Tables    []*model.Table
}

// Len returns the number of records in the seed
func (s *Seed) Len() int {
	return len(s.Notes) + len(s.Guides) + len(s.Tasks) + len(s.Templates) + len(s.Favorites) + len(s.Tables)
}
