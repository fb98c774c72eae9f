package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petasbytes/toolchat/conversation"
)

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
}

const (
	youLabel       = "\u001b[94mYou\u001b[0m: "
	assistantLabel = "\u001b[93mAssistant\u001b[0m: "
)

type lineReader interface {
	ReadLine() (string, error)
}

// termReader reads one line at a time in raw mode so the terminal gets line
// editing, then restores the previous state for the model output.
type termReader struct {
	fd int
	t  *term.Terminal
}

func newTermReader(f *os.File) *termReader {
	return &termReader{fd: int(f.Fd()), t: term.NewTerminal(f, youLabel)}
}

func (r *termReader) ReadLine() (string, error) {
	old, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", err
	}
	if w, h, err := term.GetSize(r.fd); err == nil {
		_ = r.t.SetSize(w, h)
	}
	line, err := r.t.ReadLine()
	if restoreErr := term.Restore(r.fd, old); err == nil {
		err = restoreErr
	}
	return line, err
}

type scanReader struct {
	sc     *bufio.Scanner
	prompt io.Writer
}

func (r *scanReader) ReadLine() (string, error) {
	fmt.Fprint(r.prompt, youLabel)
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func newChatCmd(a *app) *cobra.Command {
	var sf sessionFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.newRunner()
			if err != nil {
				return err
			}
			history, err := sf.history()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var in lineReader
			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				in = newTermReader(f)
			} else {
				in = &scanReader{sc: bufio.NewScanner(cmd.InOrStdin()), prompt: out}
			}

			r.OnMessage = func(m conversation.Message) {
				if m.Role == conversation.RoleAssistant && strings.TrimSpace(m.Content) != "" && m.HasToolCalls() {
					fmt.Fprintf(out, "%s%s\n", assistantLabel, m.Content)
				}
			}

			fmt.Fprintln(out, "Chat with the model (type 'exit' or Ctrl-C to quit)")
			ctx := cmd.Context()
			for {
				if ctx.Err() != nil {
					return nil
				}
				line, err := in.ReadLine()
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if exitCommands[strings.ToLower(line)] {
					return nil
				}

				turn := append(append([]conversation.Message(nil), history...), conversation.User(line))
				res, err := r.Run(ctx, turn)
				if err != nil {
					// The failed turn is dropped so the next one starts from a
					// consistent history.
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "%s%s\n", assistantLabel, res.Answer)
				history = res.Messages
				if err := sf.save(history); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}
		},
	}
	sf.register(cmd)
	return cmd
}
