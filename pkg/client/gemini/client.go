package gemini

import (
	"context"
	"iter"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/message"
	"github.com/mfukuda/comet-cli/pkg/models"
)

const defaultEmbeddingModel = "text-embedding-004"

// Client talks to the Gemini API through the official genai SDK.
type Client struct {
	api       *genai.Client
	model     string
	maxTokens int
}

var _ domain.Generator = (*Client)(nil)

func NewClient(ctx context.Context, model string, maxTokens int) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	if maxTokens <= 0 {
		maxTokens = models.Capabilities(model).ContextWindow
	}

	return &Client{
		api:       api,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *Client) ModelID() string {
	return c.model
}

func (c *Client) GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error) {
	contents, systemInstruction := toGeminiContents(req.Turns)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}
	if tools := toGeminiTools(req.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	resp, err := c.api.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, errors.Wrap(err, "Gemini API call failed")
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response from Gemini")
	}

	out := &message.Response{FinishReason: message.FinishStop}

	if resp.UsageMetadata != nil {
		out.Usage = message.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				out.Parts = append(out.Parts, message.TextPart{Text: part.Text})
			}
			if part.FunctionCall != nil {
				args := part.FunctionCall.Args
				if args == nil {
					args = make(map[string]any)
				}
				out.Parts = append(out.Parts, message.ToolCallPart{
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
				out.FinishReason = message.FinishToolCall
			}
		}
	}

	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		out.FinishReason = message.FinishLength
	}

	return out, nil
}

func (c *Client) GenerateContentStream(ctx context.Context, req *message.Request) iter.Seq2[*message.Response, error] {
	return func(yield func(*message.Response, error) bool) {
		resp, err := c.GenerateContent(ctx, req)
		yield(resp, err)
	}
}

// CountTokens uses a byte-based estimate so the accessor stays synchronous;
// the genai counting endpoint needs a network round trip.
func (c *Client) CountTokens(req *message.Request) int {
	total := 0
	for _, turn := range req.Turns {
		total += len(turn.FlatText())
	}
	return (total + 3) / 4
}

func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := c.api.Models.EmbedContent(ctx, defaultEmbeddingModel, contents, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Gemini embedding call failed")
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// toGeminiContents converts canonical turns. The last system turn becomes
// the system instruction rather than a conversation entry.
func toGeminiContents(turns []message.Turn) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, turn := range turns {
		text := turn.FlatText()
		if text == "" {
			continue
		}
		switch turn.Role {
		case message.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		case message.RoleSystem:
			systemInstruction = genai.NewContentFromText(text, genai.RoleUser)
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}

	return contents, systemInstruction
}

// toGeminiTools groups all function declarations under a single tool, the
// shape the Gemini API expects.
func toGeminiTools(decls []message.Declaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	var functionDecls []*genai.FunctionDeclaration
	for _, decl := range decls {
		functionDecls = append(functionDecls, &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  toGeminiSchema(decl.Parameters),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: functionDecls}}
}

// toGeminiSchema converts a generic JSON schema map into the genai schema
// type, recursing into properties and array items.
func toGeminiSchema(schema map[string]any) *genai.Schema {
	if len(schema) == 0 {
		return &genai.Schema{Type: genai.TypeObject}
	}

	out := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		out.Type = geminiType(t)
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(sub)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
