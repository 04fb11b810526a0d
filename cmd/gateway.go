package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/channel"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/channel/telegram"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/gateway"
)

const telegramChannelName = "telegram"

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the chat over HTTP and enabled channels",
	Long:  "Runs the chat hub HTTP API with health and readiness endpoints, plus any enabled channel adapters sharing the same conversation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := startRuntime(runCtx, "cmd.gateway", runtimeOptions{observeEvents: true})
		if err != nil {
			return err
		}
		defer env.Close()

		adapters, err := enabledAdapters(env.cfg, env.log)
		if err != nil {
			env.log.Error("Gateway configuration invalid", "error", err)
			return err
		}

		svc, err := gateway.NewService(env.cfg, env.session, adapters, slog.Default())
		if err != nil {
			return fmt.Errorf("initialize gateway service: %w", err)
		}

		env.log.Info("Gateway started", "channels", enabledChannelNames(adapters), "storage", env.cfg.Storage.Backend, "plugins", len(env.session.Registry.List()))
		if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			env.log.Error("Gateway runtime failed", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

// enabledAdapters builds the configured channel adapters. None is fine: the
// gateway then serves HTTP only.
func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 1)

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	if len(adapters) == 0 {
		return "none"
	}

	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}
