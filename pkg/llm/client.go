package llm

import "context"

// Client is the language-model capability: an ordered prompt sequence in, a
// single text completion out. Implementations must treat the message order
// as significant and must return an error rather than an empty completion
// when the provider yields no usable result.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
