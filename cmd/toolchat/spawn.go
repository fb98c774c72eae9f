package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petasbytes/toolchat/internal/spawn"
)

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn -- <command>...",
		Short: "Run a shell command with inherited stdio and exit with its code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := spawn.Run(cmd.Context(), strings.Join(args, " "), "", spawn.Stdio{
				In:  cmd.InOrStdin(),
				Out: cmd.OutOrStdout(),
				Err: cmd.ErrOrStderr(),
			})
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				return exitCodeError{code: 1}
			}
			if code != 0 {
				return exitCodeError{code: code}
			}
			return nil
		},
	}
}
