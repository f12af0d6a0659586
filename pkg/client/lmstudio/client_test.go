package lmstudio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/message"
)

func newTestServer(t *testing.T, chatHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"qwen2.5-coder","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", chatHandler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func simpleRequest() *message.Request {
	return &message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, "hello")},
	}
}

func TestGenerateContentSuccess(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode wire request: %v", err)
		}
		if body["model"] != "qwen2.5-coder" {
			t.Errorf("wire model = %v, want qwen2.5-coder", body["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "qwen2.5-coder",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "hi there"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	})

	client := NewClient("qwen2.5-coder", server.URL, DefaultTimeout)
	resp, err := client.GenerateContent(context.Background(), simpleRequest())
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	if got := resp.Text(); got != "hi there" {
		t.Errorf("Text() = %q, want %q", got, "hi there")
	}
	if resp.FinishReason != message.FinishStop {
		t.Errorf("FinishReason = %s, want stop", resp.FinishReason)
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.TotalTokens != 15 {
		t.Errorf("Usage = %+v, want prompt 12 total 15", resp.Usage)
	}
}

func TestGenerateContentConnectivityError(t *testing.T) {
	var chatCalled atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		chatCalled.Store(true)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient("m", server.URL, DefaultTimeout)
	_, err := client.GenerateContent(context.Background(), simpleRequest())

	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("GenerateContent() error = %v, want ConnectivityError", err)
	}
	if connErr.Endpoint != server.URL {
		t.Errorf("Endpoint = %q, want %q", connErr.Endpoint, server.URL)
	}
	if chatCalled.Load() {
		t.Error("completion endpoint was called despite failed probe")
	}
}

func TestGenerateContentTimeout(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	client := NewClient("m", server.URL, 50*time.Millisecond)
	_, err := client.GenerateContent(context.Background(), simpleRequest())

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("GenerateContent() error = %v, want TimeoutError", err)
	}
	if timeoutErr.Timeout != 50*time.Millisecond {
		t.Errorf("Timeout = %s, want 50ms", timeoutErr.Timeout)
	}
}

func TestGenerateContentHTTPError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"invalid_request_error"}}`))
	})

	client := NewClient("m", server.URL, DefaultTimeout)
	_, err := client.GenerateContent(context.Background(), simpleRequest())

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("GenerateContent() error = %v, want HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", httpErr.StatusCode)
	}
	if httpErr.Body != "model not loaded" {
		t.Errorf("Body = %q, want upstream message", httpErr.Body)
	}
}

func TestGenerateContentStreamSingleElement(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "full answer"}, "finish_reason": "stop"}]
		}`))
	})

	client := NewClient("m", server.URL, DefaultTimeout)

	var count int
	for resp, err := range client.GenerateContentStream(context.Background(), simpleRequest()) {
		count++
		if err != nil {
			t.Fatalf("stream yielded error: %v", err)
		}
		if got := resp.Text(); got != "full answer" {
			t.Errorf("stream Text() = %q, want %q", got, "full answer")
		}
	}
	if count != 1 {
		t.Errorf("stream yielded %d elements, want 1", count)
	}
}

func TestCountTokens(t *testing.T) {
	client := NewClient("m", DefaultBaseURL, DefaultTimeout)

	short := client.CountTokens(simpleRequest())
	if short <= 0 {
		t.Errorf("CountTokens() = %d, want > 0", short)
	}

	long := client.CountTokens(&message.Request{
		Turns: []message.Turn{message.NewTextTurn(message.RoleUser, string(make([]byte, 4096)))},
	})
	if long <= short {
		t.Errorf("CountTokens() did not grow with input: short %d, long %d", short, long)
	}
}

func TestEmbedContentUnsupported(t *testing.T) {
	client := NewClient("m", DefaultBaseURL, DefaultTimeout)

	_, err := client.EmbedContent(context.Background(), []string{"text"})

	var capErr *domain.CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("EmbedContent() error = %v, want CapabilityError", err)
	}
	if capErr.Backend != "lmstudio" || capErr.Operation != "embedContent" {
		t.Errorf("CapabilityError = %+v, want lmstudio/embedContent", capErr)
	}
}

func TestProbe(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	if !Probe(context.Background(), server.URL) {
		t.Error("Probe() = false for healthy server")
	}

	server.Close()
	if Probe(context.Background(), server.URL) {
		t.Error("Probe() = true for closed server")
	}
}
