package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/provider"
	"github.com/petasbytes/toolchat/tools"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role       string `json:"role"`
		Content    any    `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func newChatServer(t *testing.T, status int, body string, captured *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		if captured != nil {
			if err := json.Unmarshal(b, captured); err != nil {
				t.Errorf("decode request: %v\n%s", err, b)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newOpenAI(t *testing.T, baseURL string) *provider.OpenAI {
	t.Helper()
	c, err := provider.NewOpenAI(provider.OpenAIOptions{APIKey: "test-key", BaseURL: baseURL, Model: "qwen-coder-turbo"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

const toolCallCompletion = `{
  "id": "chatcmpl-1", "object": "chat.completion", "created": 0, "model": "qwen-coder-turbo",
  "choices": [{
    "index": 0, "finish_reason": "tool_calls",
    "message": {"role": "assistant", "content": null, "tool_calls": [
      {"id": "call_1", "type": "function", "function": {"name": "read_file", "arguments": "{\"filePath\":\"X\"}"}},
      {"id": "", "type": "function", "function": {"name": "read_file", "arguments": ""}}
    ]}
  }]
}`

func TestOpenAI_ParsesToolCalls(t *testing.T) {
	var req chatRequest
	srv := newChatServer(t, http.StatusOK, toolCallCompletion, &req)
	c := newOpenAI(t, srv.URL)

	msg, err := c.Complete(context.Background(), provider.Request{
		Messages: []conversation.Message{conversation.System("assistant"), conversation.User("read file X and summarize")},
		Tools:    tools.Builtin(),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Role != conversation.RoleAssistant || len(msg.ToolCalls) != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	first := msg.ToolCalls[0]
	if first.ID != "call_1" || first.Name != "read_file" || string(first.Arguments) != `{"filePath":"X"}` {
		t.Fatalf("unexpected first call: %+v", first)
	}
	second := msg.ToolCalls[1]
	if !strings.HasPrefix(second.ID, "call_") || len(second.ID) <= len("call_") || string(second.Arguments) != "{}" {
		t.Fatalf("missing id/arguments should be filled: %+v", second)
	}

	if req.Model != "qwen-coder-turbo" {
		t.Errorf("model = %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Errorf("temperature should be sent as 0, got %v", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if len(req.Tools) != 1 || req.Tools[0].Type != "function" || req.Tools[0].Function.Name != "read_file" {
		t.Fatalf("unexpected tools: %+v", req.Tools)
	}
	if _, ok := req.Tools[0].Function.Parameters["$schema"]; ok {
		t.Errorf("parameters should not carry $schema")
	}
}

func TestOpenAI_SendsToolHistory(t *testing.T) {
	var req chatRequest
	final := `{"id":"c2","object":"chat.completion","created":0,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Summary: ok"}}]}`
	srv := newChatServer(t, http.StatusOK, final, &req)
	c := newOpenAI(t, srv.URL+"/v1/chat/completions")

	history := []conversation.Message{
		conversation.User("read"),
		conversation.Assistant("", conversation.ToolCall{ID: "call_1", Name: "read_file", Arguments: json.RawMessage(`{"filePath":"X"}`)}),
		conversation.ToolResult("call_1", "File content:\nabc"),
	}
	msg, err := c.Complete(context.Background(), provider.Request{Messages: history})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Content != "Summary: ok" || msg.HasToolCalls() {
		t.Fatalf("unexpected answer: %+v", msg)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	asst := req.Messages[1]
	if asst.Role != "assistant" || len(asst.ToolCalls) != 1 || asst.ToolCalls[0].ID != "call_1" ||
		asst.ToolCalls[0].Function.Arguments != `{"filePath":"X"}` {
		t.Fatalf("unexpected assistant param: %+v", asst)
	}
	tool := req.Messages[2]
	if tool.Role != "tool" || tool.ToolCallID != "call_1" {
		t.Fatalf("unexpected tool param: %+v", tool)
	}
	if len(req.Tools) != 0 {
		t.Fatalf("no tools registered, none should be sent: %+v", req.Tools)
	}
}

func TestOpenAI_HTTPErrorIsWrapped(t *testing.T) {
	srv := newChatServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, nil)
	c := newOpenAI(t, srv.URL)
	_, err := c.Complete(context.Background(), provider.Request{Messages: []conversation.Message{conversation.User("hi")}})
	if err == nil || !strings.Contains(err.Error(), "http_401") {
		t.Fatalf("expected http_401 error, got %v", err)
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, `{"id":"c","object":"chat.completion","created":0,"model":"m","choices":[]}`, nil)
	c := newOpenAI(t, srv.URL)
	if _, err := c.Complete(context.Background(), provider.Request{Messages: []conversation.Message{conversation.User("hi")}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := provider.NewOpenAI(provider.OpenAIOptions{}); err == nil {
		t.Fatal("expected missing key error")
	}
}
