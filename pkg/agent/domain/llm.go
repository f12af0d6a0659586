package domain

import (
	"context"
	"fmt"
	"iter"

	"github.com/mfukuda/comet-cli/pkg/message"
)

// Generator is the content-generation contract every backend implements.
// The orchestration loop holds exactly one Generator per session, chosen by
// the client factory.
type Generator interface {
	// GenerateContent sends the request and returns the full result.
	GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error)

	// GenerateContentStream returns a lazy sequence of response chunks.
	// Backends that do not support incremental delivery yield the full
	// result as a single terminal chunk.
	GenerateContentStream(ctx context.Context, req *message.Request) iter.Seq2[*message.Response, error]

	// CountTokens returns a token estimate for the request. Backends may
	// estimate locally instead of calling the provider.
	CountTokens(req *message.Request) int

	// EmbedContent produces embedding vectors for the given texts. Backends
	// without an embedding endpoint return a *CapabilityError.
	EmbedContent(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID returns a stable identifier for the underlying model
	ModelID() string
}

// CapabilityError reports an operation a backend does not support. It is a
// permanent condition of the backend, not a transient failure.
type CapabilityError struct {
	Backend   string
	Operation string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s is not supported in %s mode", e.Operation, e.Backend)
}
