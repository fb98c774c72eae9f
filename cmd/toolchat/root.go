package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/petasbytes/toolchat/internal/config"
	"github.com/petasbytes/toolchat/internal/logger"
	"github.com/petasbytes/toolchat/internal/telemetry"
)

const version = "0.1.0"

// exitCodeError carries a process exit code without printing anything.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type rootFlags struct {
	configPath string
	provider   string
	model      string
	logLevel   string
	maxRounds  int
	observe    bool
}

type app struct {
	flags   rootFlags
	cfg     config.Config
	logFile io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "toolchat",
		Short:         "Chat with a model that can call local tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logFile != nil {
				_ = a.logFile.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default $AGT_CONFIG or ~/.toolchat/config.toml)")
	pf.StringVar(&a.flags.provider, "provider", "", "model provider: openai or anthropic")
	pf.StringVarP(&a.flags.model, "model", "m", "", "model name")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.IntVar(&a.flags.maxRounds, "max-rounds", 0, "maximum model calls per request")
	pf.BoolVar(&a.flags.observe, "observe", false, "append JSONL run events to the artifacts dir")

	root.AddCommand(newAskCmd(a))
	root.AddCommand(newChatCmd(a))
	root.AddCommand(newToolsCmd())
	root.AddCommand(newSpawnCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var ov config.Overrides
	if flags.Changed("provider") {
		ov.Provider = a.flags.provider
	}
	cfg, err := config.Load(a.flags.configPath, ov)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flags.Changed("model") {
		cfg.Model = a.flags.model
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("max-rounds") {
		cfg.MaxRounds = a.flags.maxRounds
	}
	if flags.Changed("observe") {
		cfg.Observe = a.flags.observe
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if cfg.LogFile != "" {
		closer, err := logger.SetupFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		a.logFile = closer
	}
	telemetry.Configure(cfg.Observe, cfg.ArtifactsDir)

	if cfg.Source != "" {
		logger.Named("config").Debugf("loaded %s", cfg.Source)
	}
	a.cfg = cfg
	return nil
}

func execute(ctx context.Context) int {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		var ec exitCodeError
		if errors.As(err, &ec) {
			return ec.code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
