package lmstudio

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/logger"
	"github.com/mfukuda/comet-cli/pkg/message"
)

const (
	DefaultBaseURL = "http://localhost:1234"
	DefaultTimeout = 30 * time.Second
)

// Client generates content against an LM Studio style local server speaking
// the OpenAI chat-completion dialect.
type Client struct {
	api     *openai.Client
	baseURL string
	model   string
	timeout time.Duration
	log     *logger.Logger
}

var _ domain.Generator = (*Client)(nil)

// NewClient builds a client for the given model. An empty baseURL falls back
// to DefaultBaseURL and a non-positive timeout to DefaultTimeout. The server
// ignores the API key, but the SDK requires one.
func NewClient(model, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cfg := openai.DefaultConfig("lm-studio")
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		log:     logger.NewComponentLogger("lmstudio"),
	}
}

func (c *Client) ModelID() string {
	return c.model
}

// GenerateContent runs one blocking completion call. The server is probed
// first so an unreachable endpoint fails fast with a ConnectivityError
// instead of surfacing as a transport error from the completion POST.
func (c *Client) GenerateContent(ctx context.Context, req *message.Request) (*message.Response, error) {
	if !Probe(ctx, c.baseURL) {
		return nil, &ConnectivityError{Endpoint: c.baseURL}
	}

	wire := toWireRequest(req, c.model)
	c.log.Debug("sending chat completion", "model", c.model, "messages", len(wire.Messages), "tools", len(wire.Tools))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, wire)
	if err != nil {
		return nil, c.classify(err)
	}

	return fromWireResponse(resp), nil
}

// GenerateContentStream adapts the blocking call to the streaming contract
// by yielding the complete response as a single element. Local generation
// does not stream; callers still consume it through the same iterator shape
// as the cloud backends.
func (c *Client) GenerateContentStream(ctx context.Context, req *message.Request) iter.Seq2[*message.Response, error] {
	return func(yield func(*message.Response, error) bool) {
		resp, err := c.GenerateContent(ctx, req)
		yield(resp, err)
	}
}

// CountTokens estimates the prompt size as one token per four bytes of the
// serialized wire request. The local server exposes no counting endpoint, so
// a cheap deterministic estimate stands in.
func (c *Client) CountTokens(req *message.Request) int {
	wire := toWireRequest(req, c.model)
	data, err := json.Marshal(wire)
	if err != nil {
		return 0
	}
	return (len(data) + 3) / 4
}

// EmbedContent is not available on the local backend.
func (c *Client) EmbedContent(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, &domain.CapabilityError{Backend: "lmstudio", Operation: "embedContent"}
}

// classify maps SDK errors onto the package error taxonomy. Deadline
// expiry wins over the SDK's own wrapping so a timeout is never reported
// as a generic request failure.
func (c *Client) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: c.timeout}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &HTTPError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return &HTTPError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
		}
		return &ConnectivityError{Endpoint: c.baseURL}
	}

	return err
}
