package conversation

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidSequence is returned when an append would break the ordering
// rules described in the package doc.
var ErrInvalidSequence = errors.New("invalid message sequence")

// Log is an append-only message history. Entries already appended are never
// modified; Messages returns a copy.
type Log struct {
	msgs    []Message
	pending []string // unanswered call ids of the last assistant message, request order
}

// NewLog starts a history from initial, which must be non-empty and end in a
// user message.
func NewLog(initial ...Message) (*Log, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("%w: conversation is empty", ErrInvalidSequence)
	}
	l := &Log{}
	if err := l.Append(initial...); err != nil {
		return nil, err
	}
	if last := initial[len(initial)-1]; last.Role != RoleUser {
		return nil, fmt.Errorf("%w: conversation must end with a user message, got %s", ErrInvalidSequence, last.Role)
	}
	return l, nil
}

// Append validates and adds msgs in order. On error nothing after the
// offending message is appended.
func (l *Log) Append(msgs ...Message) error {
	for _, m := range msgs {
		if err := l.check(m); err != nil {
			return err
		}
		l.add(m)
	}
	return nil
}

func (l *Log) check(m Message) error {
	switch m.Role {
	case RoleSystem:
		if len(l.msgs) > 0 {
			return fmt.Errorf("%w: system message must be first", ErrInvalidSequence)
		}
	case RoleUser:
		if len(l.pending) > 0 {
			return fmt.Errorf("%w: user message while %d tool call(s) pending", ErrInvalidSequence, len(l.pending))
		}
	case RoleAssistant:
		if len(l.pending) > 0 {
			return fmt.Errorf("%w: assistant message while %d tool call(s) pending", ErrInvalidSequence, len(l.pending))
		}
		seen := make(map[string]struct{}, len(m.ToolCalls))
		for _, c := range m.ToolCalls {
			if c.ID == "" || c.Name == "" {
				return fmt.Errorf("%w: tool call needs an id and a name", ErrInvalidSequence)
			}
			if _, dup := seen[c.ID]; dup {
				return fmt.Errorf("%w: duplicate tool call id %q", ErrInvalidSequence, c.ID)
			}
			seen[c.ID] = struct{}{}
		}
	case RoleTool:
		if !slices.Contains(l.pending, m.ToolCallID) {
			return fmt.Errorf("%w: tool result %q does not answer a pending call", ErrInvalidSequence, m.ToolCallID)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidSequence, m.Role)
	}
	return nil
}

func (l *Log) add(m Message) {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	switch m.Role {
	case RoleAssistant:
		for _, c := range m.ToolCalls {
			l.pending = append(l.pending, c.ID)
		}
	case RoleTool:
		l.pending = slices.DeleteFunc(l.pending, func(id string) bool { return id == m.ToolCallID })
	}
	l.msgs = append(l.msgs, m)
}

// Messages returns a copy of the history, oldest first.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.msgs))
	for i, m := range l.msgs {
		m.ToolCalls = slices.Clone(m.ToolCalls)
		out[i] = m
	}
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int { return len(l.msgs) }

// Last returns the newest message; ok is false when the log is empty.
func (l *Log) Last() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// Pending returns the ids of tool calls not yet answered, in request order.
func (l *Log) Pending() []string { return slices.Clone(l.pending) }
