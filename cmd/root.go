// Package cmd holds the chathub command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/logger"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
)

var rootCmd = &cobra.Command{
	Use:           "chathub",
	Short:         "Plugin-powered chat hub",
	Long:          "Chat with an assistant that routes /commands and plain questions to plugins: weather, calculator, dictionary, Gemini and your own custom commands.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type runtimeOptions struct {
	// quiet discards logs unless a log file is configured, for commands that
	// own the terminal.
	quiet         bool
	observeEvents bool
}

// runtimeEnv is the loaded config, logger and session shared by subcommands.
type runtimeEnv struct {
	cfg      *config.Config
	log      *slog.Logger
	session  *session.Session
	closeLog func() error
}

func startRuntime(ctx context.Context, component string, opts runtimeOptions) (*runtimeEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, closeLog, err := newLogger(cfg.Logging, opts.quiet)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)
	log := appLogger.With("component", component)

	sess, err := session.Start(ctx, cfg, appLogger, session.Options{ObserveEvents: opts.observeEvents})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &runtimeEnv{cfg: cfg, log: log, session: sess, closeLog: closeLog}, nil
}

func (e *runtimeEnv) Close() error {
	return errors.Join(e.session.Close(), e.closeLog())
}

func newLogger(cfg config.LoggingConfig, quiet bool) (*slog.Logger, func() error, error) {
	if quiet && strings.TrimSpace(cfg.File) == "" && strings.TrimSpace(os.Getenv("CHATHUB_LOG_FILE")) == "" {
		return logger.Discard(), func() error { return nil }, nil
	}

	return logger.New(cfg)
}
