package message

// Schema is a JSON Schema fragment describing a tool's parameters.
type Schema map[string]any

// Declaration describes one tool the model may invoke. Tool execution is
// handled by the orchestration loop; backends only receive declarations.
type Declaration struct {
	Name        string
	Description string
	Parameters  Schema
}

// Request is the provider-neutral generation request: the conversation so
// far plus the tools the model may call. Immutable by convention once handed
// to a backend; translators must not modify it.
type Request struct {
	Turns []Turn
	Tools []Declaration
}

// OutputPart is one piece of a generation result. The closed set of
// implementations is TextPart and ToolCallPart.
type OutputPart interface {
	outputPart()
}

// ToolCallPart is a tool invocation proposed by the model. Arguments is
// always a well-formed (possibly empty) map, even when the backend delivered
// a malformed payload.
type ToolCallPart struct {
	Name      string
	Arguments map[string]any
}

func (ToolCallPart) outputPart() {}

// Response is the provider-neutral generation result.
type Response struct {
	Parts        []OutputPart
	FinishReason FinishReason
	Usage        TokenUsage
}

// Text concatenates all text output parts.
func (r *Response) Text() string {
	var out string
	for _, p := range r.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolCalls returns all tool-call output parts in order.
func (r *Response) ToolCalls() []ToolCallPart {
	var calls []ToolCallPart
	for _, p := range r.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}
