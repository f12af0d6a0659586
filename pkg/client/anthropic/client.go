package anthropic

import (
	"context"
	"encoding/json"
	"iter"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/message"
)

// Anthropic requires a minimum output budget.
const defaultMaxTokens = 8192

// Client talks to the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int
}

var _ domain.Generator = (*Client)(nil)

func NewClient(model string, maxTokens int) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	if maxTokens < defaultMaxTokens {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *Client) ModelID() string {
	return c.model
}

func (c *Client) GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error) {
	params := anthropic.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Messages:  toAnthropicMessages(req.Turns),
		Model:     anthropic.Model(c.model),
	}
	if tools := toAnthropicTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "Messages API call failed")
	}

	out := &message.Response{
		FinishReason: stopReason(resp.StopReason),
		Usage: message.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			if variant.Text != "" {
				out.Parts = append(out.Parts, message.TextPart{Text: variant.Text})
			}
		case anthropic.ToolUseBlock:
			out.Parts = append(out.Parts, message.ToolCallPart{
				Name:      variant.Name,
				Arguments: parseToolInput(variant.Input),
			})
		}
	}

	return out, nil
}

func (c *Client) GenerateContentStream(ctx context.Context, req *message.Request) iter.Seq2[*message.Response, error] {
	return func(yield func(*message.Response, error) bool) {
		resp, err := c.GenerateContent(ctx, req)
		yield(resp, err)
	}
}

// CountTokens uses a byte-based estimate. The Messages API counting endpoint
// needs a network round trip, which this synchronous accessor avoids.
func (c *Client) CountTokens(req *message.Request) int {
	total := 0
	for _, turn := range req.Turns {
		total += len(turn.FlatText())
	}
	return (total + 3) / 4
}

// EmbedContent is not offered by Anthropic.
func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, &domain.CapabilityError{Backend: "anthropic", Operation: "embedContent"}
}

// toAnthropicMessages converts canonical turns. Anthropic has no system role
// in the message list, so system turns become prefixed user messages.
func toAnthropicMessages(turns []message.Turn) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, turn := range turns {
		text := turn.FlatText()
		if text == "" {
			continue
		}
		switch turn.Role {
		case message.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		case message.RoleSystem:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("System: "+text)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}
	return out
}

func toAnthropicTools(decls []message.Declaration) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam
	for _, decl := range decls {
		properties, _ := decl.Parameters["properties"].(map[string]any)
		if properties == nil {
			properties = map[string]any{}
		}
		var required []string
		if raw, ok := decl.Parameters["required"].([]any); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        decl.Name,
				Description: anthropic.String(decl.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return tools
}

func parseToolInput(input json.RawMessage) map[string]any {
	args := make(map[string]any)
	if len(input) == 0 {
		return args
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return make(map[string]any)
	}
	return args
}

func stopReason(reason anthropic.StopReason) message.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, "":
		return message.FinishStop
	case anthropic.StopReasonToolUse:
		return message.FinishToolCall
	case anthropic.StopReasonMaxTokens:
		return message.FinishLength
	default:
		return message.FinishOther
	}
}
