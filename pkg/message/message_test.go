package message

import (
	"reflect"
	"testing"
)

func TestFlatText(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want string
	}{
		{
			name: "single text part",
			turn: NewTextTurn(RoleUser, "hello"),
			want: "hello",
		},
		{
			name: "multiple text parts joined with newline",
			turn: Turn{Role: RoleUser, Parts: []Part{
				TextPart{Text: "first"},
				TextPart{Text: "second"},
			}},
			want: "first\nsecond",
		},
		{
			name: "empty text parts skipped",
			turn: Turn{Role: RoleUser, Parts: []Part{
				TextPart{Text: ""},
				TextPart{Text: "only"},
			}},
			want: "only",
		},
		{
			name: "tool result rendered with label",
			turn: NewToolResultTurn("read_file", "file contents", ""),
			want: "[Tool result: read_file]\nfile contents",
		},
		{
			name: "tool result error replaces content",
			turn: NewToolResultTurn("read_file", "ignored", "no such file"),
			want: "[Tool result: read_file]\nError: no such file",
		},
		{
			name: "empty tool result skipped",
			turn: NewToolResultTurn("glob", "", ""),
			want: "",
		},
		{
			name: "no parts",
			turn: Turn{Role: RoleAssistant},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.turn.FlatText(); got != tt.want {
				t.Errorf("FlatText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &Response{Parts: []OutputPart{
		TextPart{Text: "hello "},
		ToolCallPart{Name: "glob", Arguments: map[string]any{}},
		TextPart{Text: "world"},
	}}

	if got := resp.Text(); got != "hello world" {
		t.Errorf("Text() = %q, want %q", got, "hello world")
	}
}

func TestResponseToolCalls(t *testing.T) {
	resp := &Response{Parts: []OutputPart{
		TextPart{Text: "explanation"},
		ToolCallPart{Name: "read_file", Arguments: map[string]any{"absolute_path": "/tmp/a"}},
		ToolCallPart{Name: "glob", Arguments: map[string]any{"pattern": "*.go"}},
	}}

	calls := resp.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("ToolCalls() returned %d calls, want 2", len(calls))
	}
	if calls[0].Name != "read_file" || calls[1].Name != "glob" {
		t.Errorf("ToolCalls() order = %s, %s; want read_file, glob", calls[0].Name, calls[1].Name)
	}
	want := map[string]any{"absolute_path": "/tmp/a"}
	if !reflect.DeepEqual(calls[0].Arguments, want) {
		t.Errorf("ToolCalls()[0].Arguments = %v, want %v", calls[0].Arguments, want)
	}
}
