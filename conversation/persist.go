package conversation

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlMessage keeps tool arguments readable as a string in YAML transcripts.
type yamlMessage struct {
	Role       Role           `yaml:"role"`
	Content    string         `yaml:"content,omitempty"`
	ToolCalls  []yamlToolCall `yaml:"tool_calls,omitempty"`
	ToolCallID string         `yaml:"tool_call_id,omitempty"`
	IsError    bool           `yaml:"is_error,omitempty"`
}

type yamlToolCall struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments,omitempty"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a transcript written by Save. A missing file yields nil, nil.
func Load(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if isYAML(path) {
		var ym []yamlMessage
		if err := yaml.Unmarshal(b, &ym); err != nil {
			return nil, err
		}
		return fromYAML(ym), nil
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Save writes msgs to path, replacing any previous content.
func Save(path string, msgs []Message) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(toYAML(msgs))
	} else {
		b, err = json.MarshalIndent(msgs, "", " ")
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func toYAML(msgs []Message) []yamlMessage {
	out := make([]yamlMessage, 0, len(msgs))
	for _, m := range msgs {
		ym := yamlMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID, IsError: m.IsError}
		for _, c := range m.ToolCalls {
			ym.ToolCalls = append(ym.ToolCalls, yamlToolCall{ID: c.ID, Name: c.Name, Arguments: string(c.Arguments)})
		}
		out = append(out, ym)
	}
	return out
}

func fromYAML(ym []yamlMessage) []Message {
	out := make([]Message, 0, len(ym))
	for _, y := range ym {
		m := Message{Role: y.Role, Content: y.Content, ToolCallID: y.ToolCallID, IsError: y.IsError}
		for _, c := range y.ToolCalls {
			tc := ToolCall{ID: c.ID, Name: c.Name}
			if c.Arguments != "" {
				tc.Arguments = json.RawMessage(c.Arguments)
			}
			m.ToolCalls = append(m.ToolCalls, tc)
		}
		out = append(out, m)
	}
	return out
}
