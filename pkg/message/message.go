package message

import (
	"fmt"
	"strings"
)

// Part is one piece of a conversation turn's content. The closed set of
// implementations is TextPart and ToolResultPart.
type Part interface {
	part()
}

// TextPart carries plain text. It doubles as an output part so backends can
// return text alongside tool calls.
type TextPart struct {
	Text string
}

func (TextPart) part()       {}
func (TextPart) outputPart() {}

// ToolResultPart carries the outcome of an earlier tool invocation back to
// the model.
type ToolResultPart struct {
	ToolName string
	Content  string
	Error    string
}

func (ToolResultPart) part() {}

// Turn is one entry of the conversation history in the neutral format.
type Turn struct {
	Role  Role
	Parts []Part
}

// NewTextTurn creates a turn holding a single text part.
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// NewToolResultTurn creates a user turn carrying one tool result.
func NewToolResultTurn(toolName, content, errText string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{ToolResultPart{
		ToolName: toolName,
		Content:  content,
		Error:    errText,
	}}}
}

// FlatText renders all parts of the turn into a single text block. Tool
// results are rendered as labeled text because not every backend has a
// dedicated tool-result channel.
func (t Turn) FlatText() string {
	var b strings.Builder
	for _, p := range t.Parts {
		switch part := p.(type) {
		case TextPart:
			if part.Text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(part.Text)
		case ToolResultPart:
			content := part.Content
			if part.Error != "" {
				content = fmt.Sprintf("Error: %s", part.Error)
			}
			if content == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fmt.Sprintf("[Tool result: %s]\n%s", part.ToolName, content))
		}
	}
	return b.String()
}
