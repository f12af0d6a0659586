package ollama

import (
	"context"
	"iter"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/message"
)

const (
	temperature      = 0.1
	defaultMaxTokens = 4096
)

// Client talks to a local Ollama daemon through its official API client.
type Client struct {
	api       *api.Client
	model     string
	maxTokens int
}

var _ domain.Generator = (*Client)(nil)

// NewClient creates a client from the OLLAMA_HOST environment, defaulting to
// the local daemon address.
func NewClient(model string, maxTokens int) (*Client, error) {
	apiClient, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Ollama client")
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		api:       apiClient,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *Client) ModelID() string {
	return c.model
}

// GenerateContent issues one chat call. Ollama always streams; chunks are
// accumulated into a single response through the callback.
func (c *Client) GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error) {
	chatRequest := &api.ChatRequest{
		Model:    c.model,
		Messages: toOllamaMessages(req.Turns),
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": c.maxTokens,
		},
	}
	if tools := toOllamaTools(req.Tools); len(tools) > 0 {
		chatRequest.Tools = tools
	}

	var contentBuilder strings.Builder
	var toolCalls []api.ToolCall
	var doneReason string
	var usage message.TokenUsage

	err := c.api.Chat(ctx, chatRequest, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			contentBuilder.WriteString(resp.Message.Content)
		}
		if len(resp.Message.ToolCalls) > 0 {
			toolCalls = append(toolCalls, resp.Message.ToolCalls...)
		}
		if resp.Done {
			doneReason = resp.DoneReason
			usage = message.TokenUsage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "ollama chat error")
	}

	out := &message.Response{
		FinishReason: doneReasonToFinish(doneReason, len(toolCalls) > 0),
		Usage:        usage,
	}

	if text := strings.TrimSpace(contentBuilder.String()); text != "" {
		out.Parts = append(out.Parts, message.TextPart{Text: text})
	}

	for _, call := range toolCalls {
		args := call.Function.Arguments.ToMap()
		if args == nil {
			args = make(map[string]any)
		}
		out.Parts = append(out.Parts, message.ToolCallPart{
			Name:      call.Function.Name,
			Arguments: args,
		})
	}

	return out, nil
}

func (c *Client) GenerateContentStream(ctx context.Context, req *message.Request) iter.Seq2[*message.Response, error] {
	return func(yield func(*message.Response, error) bool) {
		resp, err := c.GenerateContent(ctx, req)
		yield(resp, err)
	}
}

// CountTokens uses a byte-based estimate. Actual counts arrive with the chat
// response as prompt eval counts.
func (c *Client) CountTokens(req *message.Request) int {
	total := 0
	for _, turn := range req.Turns {
		total += len(turn.FlatText())
	}
	return (total + 3) / 4
}

func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ollama embed error")
	}
	return resp.Embeddings, nil
}

func toOllamaMessages(turns []message.Turn) []api.Message {
	var out []api.Message
	for _, turn := range turns {
		text := turn.FlatText()
		if text == "" {
			continue
		}
		out = append(out, api.Message{
			Role:    string(turn.Role),
			Content: text,
		})
	}
	return out
}

func toOllamaTools(decls []message.Declaration) api.Tools {
	var tools api.Tools
	for _, decl := range decls {
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  toOllamaParameters(decl.Parameters),
			},
		})
	}
	return tools
}

func toOllamaParameters(schema map[string]any) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       "object",
		Properties: api.NewToolPropertiesMap(),
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		for name, raw := range props {
			sub, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			prop := api.ToolProperty{}
			if t, ok := sub["type"].(string); ok {
				prop.Type = api.PropertyType{t}
			}
			if desc, ok := sub["description"].(string); ok {
				prop.Description = desc
			}
			params.Properties.Set(name, prop)
		}
	}

	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				params.Required = append(params.Required, s)
			}
		}
	}

	return params
}

func doneReasonToFinish(reason string, hasToolCalls bool) message.FinishReason {
	if hasToolCalls {
		return message.FinishToolCall
	}
	switch reason {
	case "stop", "":
		return message.FinishStop
	case "length":
		return message.FinishLength
	default:
		return message.FinishOther
	}
}
