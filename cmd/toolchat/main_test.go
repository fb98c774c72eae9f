package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AGT_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	for _, k := range []string{"AGT_PROVIDER", "MODEL_NAME", "OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "AGT_MAX_ROUNDS", "AGT_OBSERVE_JSON", "AGT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func completion(message string) string {
	return fmt.Sprintf(`{"id":"c","object":"chat.completion","created":0,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":%s}]}`, message)
}

func TestAsk_ToolRoundTrip(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("alpha beta"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		switch calls.Add(1) {
		case 1:
			args, _ := json.Marshal(map[string]string{"filePath": file})
			call, _ := json.Marshal(string(args))
			_, _ = io.WriteString(w, completion(fmt.Sprintf(
				`{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"read_file","arguments":%s}}]}`, call)))
		default:
			last := req.Messages[len(req.Messages)-1]
			content, _ := last.Content.(string)
			if last.Role != "tool" || content != "File content:\nalpha beta" {
				t.Errorf("unexpected tool message: %+v", last)
			}
			_, _ = io.WriteString(w, completion(`{"role":"assistant","content":"Summary: two words"}`))
		}
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	session := filepath.Join(dir, "session.yaml")

	out, err := run(t, "ask", "--session", session, "summarize", file)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if strings.TrimSpace(out) != "Summary: two words" {
		t.Fatalf("output = %q", out)
	}
	if calls.Load() != 2 {
		t.Fatalf("endpoint calls = %d, want 2", calls.Load())
	}

	msgs, err := conversation.Load(session)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 5 || msgs[0].Role != conversation.RoleSystem || msgs[3].ToolCallID != "call_1" {
		t.Fatalf("unexpected saved session: %+v", msgs)
	}
}

func TestAsk_MissingKey(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "ask", "hello"); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestTools_ListsBuiltin(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "tools")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "read_file") {
		t.Fatalf("output = %q", out)
	}

	out, err = run(t, "tools", "--schema")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"filePath"`) {
		t.Fatalf("schema output missing filePath: %s", out)
	}
}

func TestSpawn_ExitCode(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "spawn", "--", "true"); err != nil {
		t.Fatalf("spawn true: %v", err)
	}

	_, err := run(t, "spawn", "--", "exit", "3")
	var ec exitCodeError
	if !errors.As(err, &ec) || ec.code != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}

	out, err := run(t, "spawn", "--", "echo", "hi")
	if err != nil || strings.TrimSpace(out) != "hi" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestChat_ReadsLinesUntilExit(t *testing.T) {
	isolateEnv(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(fmt.Sprintf(`{"role":"assistant","content":"reply %d"}`, n)))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("first\n\nsecond\nexit\nignored\n"))
	root.SetArgs([]string{"chat"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("endpoint calls = %d, want 2", calls.Load())
	}
	if !strings.Contains(out.String(), "reply 1") || !strings.Contains(out.String(), "reply 2") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestAsk_ProviderFlagSelectsAnthropicCredentials(t *testing.T) {
	isolateEnv(t)
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude",`+
			`"content":[{"type":"text","text":"hi from claude"}],"stop_reason":"end_turn",`+
			`"usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-openai-should-not-be-used")
	t.Setenv("OPENAI_BASE_URL", "http://127.0.0.1:1/v1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL)

	out, err := run(t, "--provider", "anthropic", "ask", "hello")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if strings.TrimSpace(out) != "hi from claude" {
		t.Fatalf("output = %q", out)
	}
	if gotKey != "sk-ant-test" {
		t.Fatalf("x-api-key = %q, want the anthropic key", gotKey)
	}
	if gotPath != "/v1/messages" {
		t.Fatalf("path = %q", gotPath)
	}
}
