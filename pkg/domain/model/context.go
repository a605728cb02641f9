package model

// ContextChunk is one piece of retrieved text handed to the prompt or the fallback answer
type ContextChunk struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// WebResult is one external search hit
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Chunk sources for structured records
const (
	SourceTable = "table"
	SourceNote  = "note"
	SourceGuide = "guide"
	SourceTask  = "task"
)

// AnswerPath records which stage produced an answer
type AnswerPath string

const (
	AnswerPathModel     AnswerPath = "model"
	AnswerPathFallback  AnswerPath = "fallback"
	AnswerPathSanitized AnswerPath = "sanitized"
	AnswerPathTable     AnswerPath = "table"
)

// ChatReply is the result of one chat turn
type ChatReply struct {
	Answer     string
	SessionID  SessionID
	Context    []ContextChunk
	WebResults []WebResult
	Path       AnswerPath
}
