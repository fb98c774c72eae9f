package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/logger"
	"github.com/petasbytes/toolchat/internal/provider"
	"github.com/petasbytes/toolchat/internal/telemetry"
	"github.com/petasbytes/toolchat/tools"
)

// DefaultMaxRounds bounds a run when Runner.MaxRounds is unset.
const DefaultMaxRounds = 16

// ErrMaxRounds is returned when the model keeps requesting tools after the
// round limit.
var ErrMaxRounds = errors.New("max rounds exceeded")

// Runner holds no per-run state; each Run builds its own log.
type Runner struct {
	Endpoint  provider.Endpoint
	Registry  *tools.Registry
	MaxRounds int

	// OnMessage, if set, sees every message appended during a run: the
	// assistant turns and the tool results, in log order.
	OnMessage func(conversation.Message)
}

// Result is the outcome of Run. Messages holds the full transcript, also
// when Run fails part way.
type Result struct {
	Answer   string
	Messages []conversation.Message
	Rounds   int
}

func New(ep provider.Endpoint, reg *tools.Registry) *Runner {
	return &Runner{Endpoint: ep, Registry: reg, MaxRounds: DefaultMaxRounds}
}

// Run sends initial to the endpoint and keeps executing requested tools
// until the model answers without tool calls.
func (r *Runner) Run(ctx context.Context, initial []conversation.Message) (Result, error) {
	log, err := conversation.NewLog(initial...)
	if err != nil {
		return Result{Messages: initial}, err
	}

	runID, ok := telemetry.RunIDFromContext(ctx)
	if !ok {
		runID = telemetry.NewRunID()
		ctx = telemetry.WithRunID(ctx, runID)
	}
	l := logger.Named("runner").WithField("run_id", runID)

	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	reg := r.Registry
	if reg == nil {
		reg, _ = tools.NewRegistry()
	}

	started := time.Now()
	telemetry.Emit("run_started", map[string]any{
		"run_id":     runID,
		"messages":   log.Len(),
		"tools":      reg.Len(),
		"max_rounds": maxRounds,
	})

	res := Result{}
	finish := func(err error) (Result, error) {
		res.Messages = log.Messages()
		fields := map[string]any{
			"run_id":      runID,
			"rounds":      res.Rounds,
			"messages":    len(res.Messages),
			"duration_ms": time.Since(started).Milliseconds(),
			"error":       nil,
		}
		if err != nil {
			fields["error"] = err.Error()
			l.WithError(err).Warnf("run stopped after %d round(s)", res.Rounds)
		} else {
			l.Debugf("run finished after %d round(s)", res.Rounds)
		}
		telemetry.Emit("run_finished", fields)
		return res, err
	}

	for res.Rounds < maxRounds {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("run cancelled: %w", err))
		}
		res.Rounds++
		round := res.Rounds

		callStart := time.Now()
		msg, err := r.Endpoint.Complete(ctx, provider.Request{
			Messages: log.Messages(),
			Tools:    reg.Definitions(),
		})
		telemetry.Emit("model_call", map[string]any{
			"run_id":      runID,
			"round":       round,
			"duration_ms": time.Since(callStart).Milliseconds(),
			"tool_calls":  len(msg.ToolCalls),
			"ok":          err == nil,
		})
		if err != nil {
			return finish(fmt.Errorf("model call (round %d): %w", round, err))
		}

		msg.Role = conversation.RoleAssistant
		if err := log.Append(msg); err != nil {
			return finish(fmt.Errorf("model call (round %d): %w", round, err))
		}
		r.notify(msg)

		if !msg.HasToolCalls() {
			res.Answer = msg.Content
			return finish(nil)
		}

		l.WithField("round", round).Infof("executing %d tool call(s)", len(msg.ToolCalls))
		for _, c := range msg.ToolCalls {
			l.WithFields(logger.Fields{
				"round":      round,
				"call_id":    c.ID,
				"args_bytes": len(c.Arguments),
			}).Debugf("tool %s requested", c.Name)
		}
		for _, m := range ExecuteAll(ctx, msg.ToolCalls, reg) {
			if err := log.Append(m); err != nil {
				return finish(err)
			}
			r.notify(m)
		}
	}

	if err := ctx.Err(); err != nil {
		return finish(fmt.Errorf("run cancelled: %w", err))
	}
	return finish(fmt.Errorf("%w: model still requesting tools after %d round(s)", ErrMaxRounds, maxRounds))
}

func (r *Runner) notify(m conversation.Message) {
	if r.OnMessage != nil {
		r.OnMessage(m)
	}
}
