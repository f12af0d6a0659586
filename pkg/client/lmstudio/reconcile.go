package lmstudio

import (
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mfukuda/comet-cli/pkg/message"
)

// fromWireResponse translates a chat-completion response back into the
// canonical shape. It is a pure function: the same wire payload always
// yields a structurally identical response.
func fromWireResponse(resp openai.ChatCompletionResponse) *message.Response {
	out := &message.Response{
		FinishReason: message.FinishStop,
		Usage: message.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]

	if text := strings.TrimSpace(choice.Message.Content); text != "" {
		out.Parts = append(out.Parts, message.TextPart{Text: text})
	}

	for _, call := range choice.Message.ToolCalls {
		out.Parts = append(out.Parts, message.ToolCallPart{
			Name:      call.Function.Name,
			Arguments: parseToolArguments(call.Function.Arguments),
		})
	}

	out.FinishReason = canonicalFinishReason(choice.FinishReason)
	return out
}

// parseToolArguments parses a tool-call argument payload. Local models
// frequently emit JSON with raw control characters after a backslash; one
// repair pass re-escapes those sequences and retries. If the payload still
// does not parse, the call degrades to empty arguments rather than failing
// the whole generation turn.
func parseToolArguments(raw string) map[string]any {
	args := make(map[string]any)
	if strings.TrimSpace(raw) == "" {
		return args
	}

	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}

	repaired := repairEscapes(raw)
	args = make(map[string]any)
	if err := json.Unmarshal([]byte(repaired), &args); err == nil {
		return args
	}

	return make(map[string]any)
}

// repairEscapes rewrites a backslash followed by a literal newline, tab, or
// carriage return into the proper two-character escape sequence.
func repairEscapes(raw string) string {
	return strings.NewReplacer(
		"\\\n", `\n`,
		"\\\t", `\t`,
		"\\\r", `\r`,
	).Replace(raw)
}

// canonicalFinishReason maps the wire finish reason onto the canonical
// vocabulary, defaulting to stop when absent.
func canonicalFinishReason(reason openai.FinishReason) message.FinishReason {
	switch reason {
	case openai.FinishReasonStop, "":
		return message.FinishStop
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return message.FinishToolCall
	case openai.FinishReasonLength:
		return message.FinishLength
	default:
		return message.FinishOther
	}
}
