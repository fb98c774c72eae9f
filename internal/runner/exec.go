package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/metrics"
	"github.com/petasbytes/toolchat/internal/telemetry"
	"github.com/petasbytes/toolchat/tools"
)

// ExecuteAll runs every call concurrently and returns one tool result per
// call, index-aligned with calls. Failures become error results; nothing is
// returned as a Go error.
func ExecuteAll(ctx context.Context, calls []conversation.ToolCall, reg *tools.Registry) []conversation.Message {
	results := make([]conversation.Message, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i] = execOne(ctx, call, reg)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func execOne(ctx context.Context, call conversation.ToolCall, reg *tools.Registry) conversation.Message {
	runID, _ := telemetry.RunIDFromContext(ctx)
	start := time.Now()
	inSize := len(call.Arguments)

	// Emit a category rather than the message so payloads never reach the log.
	emit := func(out, errKind string) {
		fields := metrics.Measure(out).Fields("output_")
		fields["run_id"] = runID
		fields["tool_name"] = call.Name
		fields["call_id"] = call.ID
		fields["duration_ms"] = time.Since(start).Milliseconds()
		fields["input_size"] = inSize
		fields["output_size"] = len(out)
		fields["error"] = nil
		if errKind != "" {
			fields["error"] = errKind
		}
		telemetry.Emit("tool_exec", fields)
	}

	def, ok := reg.Lookup(call.Name)
	if !ok {
		emit("", "tool not found")
		return conversation.ToolError(call.ID, fmt.Sprintf("Error: tool %q not found", call.Name))
	}
	if err := reg.Validate(call.Name, call.Arguments); err != nil {
		emit("", "invalid arguments")
		why := strings.TrimPrefix(err.Error(), tools.ErrInvalidArguments.Error()+": ")
		return conversation.ToolError(call.ID, fmt.Sprintf("Error: invalid arguments for tool %q: %s", call.Name, why))
	}

	out, err := invoke(ctx, def, call)
	if err != nil {
		emit("", "tool error")
		return conversation.ToolError(call.ID, "Tool execution error: "+err.Error())
	}
	emit(out, "")
	return conversation.ToolResult(call.ID, out)
}

func invoke(ctx context.Context, def tools.ToolDefinition, call conversation.ToolCall) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool %s panicked: %v", def.Name, p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return def.Function(ctx, call.Arguments)
}
