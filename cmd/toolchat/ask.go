package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/provider"
	"github.com/petasbytes/toolchat/internal/runner"
	"github.com/petasbytes/toolchat/tools"
)

const defaultSystemPrompt = "You are a helpful assistant. Use the available tools when they help answer the request."

type sessionFlags struct {
	system  string
	session string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.system, "system", defaultSystemPrompt, "system prompt for new conversations")
	cmd.Flags().StringVarP(&f.session, "session", "s", "", "transcript file to resume and update (.json, .yaml)")
}

// history loads the session transcript, or starts one with the system
// prompt.
func (f *sessionFlags) history() ([]conversation.Message, error) {
	var msgs []conversation.Message
	if f.session != "" {
		loaded, err := conversation.Load(f.session)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", f.session, err)
		}
		msgs = loaded
	}
	if len(msgs) == 0 && strings.TrimSpace(f.system) != "" {
		msgs = append(msgs, conversation.System(f.system))
	}
	return msgs, nil
}

func (f *sessionFlags) save(msgs []conversation.Message) error {
	if f.session == "" {
		return nil
	}
	if err := conversation.Save(f.session, msgs); err != nil {
		return fmt.Errorf("save session %s: %w", f.session, err)
	}
	return nil
}

func (a *app) newRunner() (*runner.Runner, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	ep, err := provider.New(a.cfg)
	if err != nil {
		return nil, err
	}
	r := runner.New(ep, tools.DefaultRegistry())
	r.MaxRounds = a.cfg.MaxRounds
	return r, nil
}

func newAskCmd(a *app) *cobra.Command {
	var sf sessionFlags
	cmd := &cobra.Command{
		Use:   "ask <prompt>...",
		Short: "Send one request and print the final answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newRunner()
			if err != nil {
				return err
			}
			msgs, err := sf.history()
			if err != nil {
				return err
			}
			msgs = append(msgs, conversation.User(strings.Join(args, " ")))

			res, err := r.Run(cmd.Context(), msgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
			return sf.save(res.Messages)
		},
	}
	sf.register(cmd)
	return cmd
}
