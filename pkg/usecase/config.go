package usecase

import "github.com/taskdesk/taskdesk/pkg/domain/model"

// ChatConfig holds the tunable limits of the chat pipeline
type ChatConfig struct {
	// HistoryWindow is the number of recent messages kept in the history cache
	HistoryWindow int
	// PromptHistory is the number of recent messages rendered into the prompt
	PromptHistory int
	TitleLength   int

	// KeywordTermLength caps the question prefix used for substring search
	KeywordTermLength int
	KeywordLimit      int
	RecentTables      int
	MatchingTables    int
	FallbackTables    int
	TableSampleRows   int
	VectorLimit       int
	ContextLimit      int
	WebLimit          int

	ChunkSize    int
	ChunkOverlap int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		HistoryWindow:     12,
		PromptHistory:     6,
		TitleLength:       60,
		KeywordTermLength: 120,
		KeywordLimit:      3,
		RecentTables:      6,
		MatchingTables:    3,
		FallbackTables:    2,
		TableSampleRows:   10,
		VectorLimit:       3,
		ContextLimit:      6,
		WebLimit:          3,
		ChunkSize:         model.DefaultChunkSize,
		ChunkOverlap:      model.DefaultChunkOverlap,
	}
}
