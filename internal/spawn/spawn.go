// Package spawn launches a shell command with the caller's stdio and reports
// its exit code.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/petasbytes/toolchat/internal/logger"
)

// Shell runs commands; it is a variable so tests can point it elsewhere.
var Shell = "sh"

// Stdio is the set of streams handed to the child.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes command through `sh -c` in dir (empty means the current
// directory). It returns 0 when the child succeeds and the child's exit code
// when it fails. A command that cannot be started returns 1 and the launch
// error.
func Run(ctx context.Context, command string, dir string, stdio Stdio) (int, error) {
	if strings.TrimSpace(command) == "" {
		return 1, errors.New("no command given")
	}
	log := logger.Named("spawn")

	cmd := exec.CommandContext(ctx, Shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	if err := cmd.Start(); err != nil {
		log.WithError(err).Warnf("could not start %q", command)
		return 1, fmt.Errorf("start %s: %w", Shell, err)
	}
	err := cmd.Wait()
	if err == nil {
		log.Debugf("%q exited 0", command)
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal, including context cancellation.
			code = 1
		}
		log.Debugf("%q exited %d", command, code)
		return code, nil
	}
	return 1, err
}
