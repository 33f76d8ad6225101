package llm

import "context"

// Provider is the contract every concrete LLM client implements.
//
// Generate sends the conversation so far (plus optional tool
// definitions and functional options) and returns the model's next
// message. Implementations must honor ctx cancellation and must not
// retain state across calls — the adapter owns any retry/backoff
// policy, not the provider.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts ...any) (Message, error)
}
