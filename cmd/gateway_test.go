package cmd

import (
	"context"
	"testing"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/channel"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
)

type testAdapter struct{ name string }

func (a testAdapter) Name() string { return a.name }

func (a testAdapter) Run(_ context.Context, _ channel.Handler) error { return nil }

func TestEnabledAdaptersAllowsHTTPOnly(t *testing.T) {
	t.Parallel()

	adapters, err := enabledAdapters(config.Default(), nil)
	if err != nil {
		t.Fatalf("enabledAdapters error: %v", err)
	}
	if len(adapters) != 0 {
		t.Fatalf("adapters = %d, want 0", len(adapters))
	}
}

func TestEnabledAdaptersRequiresTelegramToken(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Channels.Telegram.Enabled = true
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error for telegram without a token")
	}

	cfg.Channels.Telegram.Token = "123:abc"
	adapters, err := enabledAdapters(cfg, nil)
	if err != nil {
		t.Fatalf("enabledAdapters error: %v", err)
	}
	if len(adapters) != 1 || adapters[0].Name() != telegramChannelName {
		t.Fatalf("adapters = %#v", adapters)
	}
}

func TestEnabledChannelNames(t *testing.T) {
	t.Parallel()

	if got := enabledChannelNames(nil); got != "none" {
		t.Fatalf("enabledChannelNames(nil) = %q, want none", got)
	}

	adapters := []channel.Adapter{testAdapter{name: "telegram"}, testAdapter{name: "slack"}}
	if got := enabledChannelNames(adapters); got != "telegram,slack" {
		t.Fatalf("enabledChannelNames = %q, want %q", got, "telegram,slack")
	}
}
