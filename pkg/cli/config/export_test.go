package config

import "time"

var SplitGCSURL = splitGCSURL

// NewChatForTest creates a Chat config for testing purposes
func NewChatForTest(historyWindow, promptHistory, titleLength, vectorLimit, contextLimit, chunkSize, chunkOverlap int) *Chat {
	return &Chat{
		historyWindow: historyWindow,
		promptHistory: promptHistory,
		titleLength:   titleLength,
		vectorLimit:   vectorLimit,
		contextLimit:  contextLimit,
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
	}
}

// NewCacheForTest creates a Cache config for testing purposes
func NewCacheForTest(backend, redisURL string, ttl time.Duration) *Cache {
	return &Cache{backend: backend, redisURL: redisURL, ttl: ttl}
}

// NewWebSearchForTest creates a WebSearch config for testing purposes
func NewWebSearchForTest(mode, apiKey string, results int) *WebSearch {
	return &WebSearch{mode: mode, serperAPIKey: apiKey, results: results}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{backend: backend, projectID: projectID, postgresDSN: postgresDSN}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider string) *LLM {
	return &LLM{provider: provider, timeout: time.Second, ollamaURL: "http://localhost:11434"}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}
