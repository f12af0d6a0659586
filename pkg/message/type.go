package message

// Role identifies the author of a conversation turn in the neutral format
// shared by all backends.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FinishReason is the canonical termination reason of a generation result.
type FinishReason string

const (
	FinishStop     FinishReason = "stop"
	FinishToolCall FinishReason = "tool_call"
	FinishLength   FinishReason = "length"
	FinishOther    FinishReason = "other"
)

// TokenUsage holds token accounting for one generation call. Counters are
// taken from the backend when it reports them and estimated otherwise;
// each is always >= 0.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
