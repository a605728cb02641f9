package llm

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrModelUnavailable is returned by Complete on transport failures, timeouts, non-success
// responses and empty output. Callers treat every case the same way.
var ErrModelUnavailable = goerr.New("language model unavailable")

// DefaultTimeout bounds a single Complete call
const DefaultTimeout = 30 * time.Second

// Sampling parameters for chat completion, shared by every provider. Low temperature keeps
// answers close to the retrieved context.
const (
	Temperature = 0.2
	TopP        = 0.9
)

// Invoker is the language model as seen by the chat pipeline
type Invoker interface {
	// Complete returns the model answer for a system and user prompt, or ErrModelUnavailable
	Complete(ctx context.Context, system, user string) (string, error)

	// Embed returns a vector for text. Failures return an empty vector, never an error, so that
	// batch rebuilds survive individual failures.
	Embed(ctx context.Context, text string) []float32
}

// Disabled is an Invoker used when no provider is configured. Complete always fails and Embed
// always returns an empty vector, which drives the pipeline onto its fallback paths.
type Disabled struct{}

var _ Invoker = Disabled{}

func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", goerr.Wrap(ErrModelUnavailable, "no language model configured")
}

func (Disabled) Embed(context.Context, string) []float32 {
	return nil
}

// unavailable wraps a provider failure so that errors.Is(err, ErrModelUnavailable) holds
func unavailable(err error, msg string) error {
	return goerr.Wrap(ErrModelUnavailable, msg, goerr.V("cause", err.Error()))
}
