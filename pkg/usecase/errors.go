package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Input errors
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyContent  = errors.New("content is required")

	// Not found errors
	ErrSessionNotFound = errors.New("session not found")

	// Embedding errors
	ErrRebuildInProgress = errors.New("embedding rebuild already in progress")
	ErrVectorUnavailable = errors.New("vector store unavailable")
)

// Context keys for error values
const (
	SessionIDKey = "session_id"
)
