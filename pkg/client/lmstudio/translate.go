package lmstudio

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mfukuda/comet-cli/pkg/message"
)

// Generation parameters for local models. These are deliberate policy
// defaults, not derived from model capability data; max tokens is sized for
// large generated file content.
const (
	temperature     = 0.7
	topP            = 0.9
	maxOutputTokens = 16384
)

// toolUsageSystemPrompt replaces the orchestration loop's richer system
// prompt, which local models tend to ignore or mangle.
const toolUsageSystemPrompt = "You are a helpful coding assistant. When the user asks you to inspect or modify files or to run commands, use the available tools. Always use the appropriate tool when one is available for the task at hand."

// toWireRequest translates a canonical request into the chat-completion
// shape an OpenAI-dialect local server expects. The input request is never
// modified.
func toWireRequest(req *message.Request, model string) openai.ChatCompletionRequest {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: toolUsageSystemPrompt,
	}}

	for _, turn := range req.Turns {
		text := strings.TrimSpace(turn.FlatText())
		if text == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    wireRole(turn.Role),
			Content: text,
		})
	}

	wire := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxOutputTokens,
		Stream:      false,
	}

	if tools := toWireTools(req.Tools); len(tools) > 0 {
		wire.Tools = tools
		wire.ToolChoice = "auto"
	}

	return wire
}

// wireRole maps canonical roles onto the wire vocabulary.
func wireRole(role message.Role) string {
	switch role {
	case message.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case message.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// toWireTools filters declarations against the allow-list and converts the
// survivors to wire format. Empty parameter schemas are normalized to an
// explicit empty object because the server rejects a missing schema.
func toWireTools(decls []message.Declaration) []openai.Tool {
	var tools []openai.Tool
	for _, decl := range decls {
		if !isAllowedTool(decl.Name) {
			continue
		}

		params := any(decl.Parameters)
		if len(decl.Parameters) == 0 {
			params = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}
