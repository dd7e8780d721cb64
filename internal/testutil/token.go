package testutil

// DefaultConversationID is used when a scenario names no conversation.
const DefaultConversationID = "test-conversation"

// FixedTokenGenerator returns the same conversation ID on every call, so
// every anonymous request in a scenario lands in one journaled
// conversation. It satisfies engine.TokenGenerator.
//
// Unlike engine.FixedGenerator it never runs out.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator returns a generator for token, or for
// DefaultConversationID when token is empty.
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = DefaultConversationID
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
