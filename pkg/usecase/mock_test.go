package usecase_test

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/taskdesk/taskdesk/pkg/service/llm"
)

// mockInvoker records prompts and answers from completeFn, or fails when it is nil
type mockInvoker struct {
	mu         sync.Mutex
	completeFn func(system, user string) (string, error)
	embedFn    func(text string) []float32
	prompts    []string
	embedCalls int
}

func (m *mockInvoker) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, user)
	m.mu.Unlock()

	if m.completeFn == nil {
		return "", errors.Join(llm.ErrModelUnavailable, context.DeadlineExceeded)
	}
	return m.completeFn(system, user)
}

func (m *mockInvoker) Embed(ctx context.Context, text string) []float32 {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()

	if m.embedFn == nil {
		return hashVector(text)
	}
	return m.embedFn(text)
}

func (m *mockInvoker) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// hashVector returns a deterministic non-zero vector derived from text
func hashVector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, 8)
	for i := range v {
		v[i] = float32((seed>>(i*8))&0xff) + 1
	}
	return v
}
