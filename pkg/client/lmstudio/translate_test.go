package lmstudio

import (
	"reflect"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mfukuda/comet-cli/pkg/message"
)

func TestToWireRequestFixedParameters(t *testing.T) {
	req := &message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "hello")},
	}

	wire := toWireRequest(req, "qwen2.5-coder")

	if wire.Model != "qwen2.5-coder" {
		t.Errorf("Model = %q, want qwen2.5-coder", wire.Model)
	}
	if wire.Temperature != temperature {
		t.Errorf("Temperature = %v, want %v", wire.Temperature, temperature)
	}
	if wire.TopP != topP {
		t.Errorf("TopP = %v, want %v", wire.TopP, topP)
	}
	if wire.MaxTokens != maxOutputTokens {
		t.Errorf("MaxTokens = %d, want %d", wire.MaxTokens, maxOutputTokens)
	}
	if wire.Stream {
		t.Error("Stream = true, want false")
	}
}

func TestToWireRequestSystemPromptPrepended(t *testing.T) {
	req := &message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "list files")},
	}

	wire := toWireRequest(req, "m")

	if len(wire.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(wire.Messages))
	}
	if wire.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", wire.Messages[0].Role)
	}
	if wire.Messages[0].Content != toolUsageSystemPrompt {
		t.Errorf("first message is not the tool usage prompt")
	}
	if wire.Messages[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("second message role = %q, want user", wire.Messages[1].Role)
	}
}

func TestToWireRequestDropsEmptyTurns(t *testing.T) {
	req := &message.Request{
		Turns: []message.Turn{
			message.NewTextTurn(message.RoleUser, "  \n\t "),
			message.NewTextTurn(message.RoleAssistant, ""),
			message.NewTextTurn(message.RoleUser, "  real content  "),
		},
	}

	wire := toWireRequest(req, "m")

	if len(wire.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (system + one user)", len(wire.Messages))
	}
	if wire.Messages[1].Content != "real content" {
		t.Errorf("content = %q, want trimmed %q", wire.Messages[1].Content, "real content")
	}
}

func TestToWireRequestRoleMapping(t *testing.T) {
	tests := []struct {
		role message.Role
		want string
	}{
		{message.RoleUser, openai.ChatMessageRoleUser},
		{message.RoleAssistant, openai.ChatMessageRoleAssistant},
		{message.RoleSystem, openai.ChatMessageRoleSystem},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := &message.Request{Turns: []message.Turn{message.NewTextTurn(tt.role, "x")}}
			wire := toWireRequest(req, "m")
			if got := wire.Messages[1].Role; got != tt.want {
				t.Errorf("role %s mapped to %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestToWireRequestToolFiltering(t *testing.T) {
	req := &message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "go")},
		Tools: []message.Declaration{
			{Name: "read_file", Description: "reads", Parameters: message.Schema{"type": "object"}},
			{Name: "web_fetch", Description: "not allowed"},
			{Name: "run_shell_command", Description: "runs"},
		},
	}

	wire := toWireRequest(req, "m")

	if len(wire.Tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(wire.Tools))
	}
	names := []string{wire.Tools[0].Function.Name, wire.Tools[1].Function.Name}
	if names[0] != "read_file" || names[1] != "run_shell_command" {
		t.Errorf("tool names = %v, want [read_file run_shell_command]", names)
	}
	if wire.ToolChoice != "auto" {
		t.Errorf("ToolChoice = %v, want auto", wire.ToolChoice)
	}
}

func TestToWireRequestNoToolsOmitsChoice(t *testing.T) {
	tests := []struct {
		name  string
		tools []message.Declaration
	}{
		{"nil tools", nil},
		{"all filtered out", []message.Declaration{{Name: "web_fetch"}, {Name: "memory"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &message.Request{
				Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "go")},
				Tools: tt.tools,
			}
			wire := toWireRequest(req, "m")
			if wire.Tools != nil {
				t.Errorf("Tools = %v, want nil", wire.Tools)
			}
			if wire.ToolChoice != nil {
				t.Errorf("ToolChoice = %v, want nil", wire.ToolChoice)
			}
		})
	}
}

func TestToWireRequestEmptySchemaNormalized(t *testing.T) {
	req := &message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "go")},
		Tools: []message.Declaration{{Name: "glob", Description: "finds files"}},
	}

	wire := toWireRequest(req, "m")

	if len(wire.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(wire.Tools))
	}
	want := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if !reflect.DeepEqual(wire.Tools[0].Function.Parameters, want) {
		t.Errorf("Parameters = %v, want %v", wire.Tools[0].Function.Parameters, want)
	}
}

func TestToWireRequestDoesNotMutateInput(t *testing.T) {
	turns := []message.Turn{message.NewTextTurn(message.RoleUser, "  padded  ")}
	decls := []message.Declaration{{Name: "glob"}}
	req := &message.Request{Turns: turns, Tools: decls}

	_ = toWireRequest(req, "m")

	if req.Turns[0].FlatText() != "  padded  " {
		t.Error("input turn text was mutated")
	}
	if req.Tools[0].Parameters != nil {
		t.Error("input declaration schema was mutated")
	}
}
