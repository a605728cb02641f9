package model

import (
	"time"

	"github.com/google/uuid"
)

// NewContentID generates an identifier for collaborator records created through seed import
func NewContentID() string {
	return uuid.New().String()
}

// Note is a free-form note. Content may contain markup.
type Note struct {
	ID        string
	Title     string
	Content   string
	UpdatedAt time.Time
}

// Guide is a how-to document with its category display name
type Guide struct {
	ID           string
	Title        string
	Content      string
	CategoryName string
	UpdatedAt    time.Time
}

// Step is one ordered step of a task or template
type Step struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

// Task is a unit of work with ordered steps
type Task struct {
	ID        string
	Title     string
	Content   string
	Steps     []Step
	UpdatedAt time.Time
}

// Template is a reusable list of steps
type Template struct {
	ID        string
	Name      string
	Steps     []Step
	UpdatedAt time.Time
}

// Favorite is a saved link with a description
type Favorite struct {
	ID        string
	Title     string
	Link      string
	Content   string
	UpdatedAt time.Time
}
