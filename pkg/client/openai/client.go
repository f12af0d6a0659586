package openai

import (
	"context"
	"encoding/json"
	"iter"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/responses"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkg/errors"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/message"
	"github.com/mfukuda/comet-cli/pkg/models"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// Client talks to the OpenAI Responses API.
type Client struct {
	api       openai.Client
	model     string
	maxTokens int
}

var _ domain.Generator = (*Client)(nil)

// NewClient creates a client for the given model. maxTokens <= 0 falls back
// to the model's context window from the capability table.
func NewClient(model string, maxTokens int) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	// Custom base URL covers Azure OpenAI and compatible gateways.
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if maxTokens <= 0 {
		maxTokens = models.Capabilities(model).ContextWindow
	}

	return &Client{
		api:       openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *Client) ModelID() string {
	return c.model
}

func (c *Client) GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error) {
	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: toInputItems(req.Turns),
		},
		Model: shared.ChatModel(c.model),
	}
	if c.maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(c.maxTokens))
	}
	if tools := toResponsesTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "Responses API call failed")
	}

	out := &message.Response{
		FinishReason: message.FinishStop,
		Usage: message.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}

	if text := resp.OutputText(); text != "" {
		out.Parts = append(out.Parts, message.TextPart{Text: text})
	}

	for _, item := range resp.Output {
		if call, ok := item.AsAny().(responses.ResponseFunctionToolCall); ok && call.Name != "" {
			out.Parts = append(out.Parts, message.ToolCallPart{
				Name:      call.Name,
				Arguments: parseArguments(call.Arguments),
			})
			out.FinishReason = message.FinishToolCall
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

// CountTokens approximates with the serialized input size. The Responses API
// has no standalone counting endpoint.
func (c *Client) CountTokens(req *message.Request) int {
	data, err := json.Marshal(toInputItems(req.Turns))
	if err != nil {
		return 0
	}
	return (len(data) + 3) / 4
}

func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: defaultEmbeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "embeddings call failed")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func toInputItems(turns []message.Turn) responses.ResponseInputParam {
	var items responses.ResponseInputParam
	for _, turn := range turns {
		text := turn.FlatText()
		if text == "" {
			continue
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(text, inputRole(turn.Role)))
	}
	return items
}

func inputRole(role message.Role) responses.EasyInputMessageRole {
	switch role {
	case message.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case message.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}

func toResponsesTools(decls []message.Declaration) []responses.ToolUnionParam {
	var tools []responses.ToolUnionParam
	for _, decl := range decls {
		schema := map[string]any(decl.Parameters)
		if len(schema) == 0 {
			schema = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}
		tools = append(tools, responses.ToolParamOfFunction(decl.Name, schema, false))
	}
	return tools
}

func parseArguments(raw string) map[string]any {
	args := make(map[string]any)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
