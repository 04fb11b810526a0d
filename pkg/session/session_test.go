package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/command"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/logger"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Chat.ReplyDelayMillis = -1
	cfg.Plugins.Weather.SimulatedDelayMillis = -1
	cfg.Storage.Backend = backend
	cfg.Storage.Path = t.TempDir()
	return cfg
}

func TestStartSeedsConversationAndBuiltins(t *testing.T) {
	s, err := Start(context.Background(), testConfig(t, "memory"), logger.Discard(), Options{ObserveEvents: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	messages := s.Orchestrator.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, command.WelcomeText, messages[0].Content)

	names := make([]string, 0)
	for _, p := range s.Registry.List() {
		names = append(names, p.Name())
	}
	assert.Equal(t, plugin.BuiltinNames(), names)
}

func TestStateSurvivesRestart(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)

			first, err := Start(ctx, cfg, logger.Discard(), Options{})
			require.NoError(t, err)

			require.NoError(t, first.Registry.Register(ctx, plugin.Descriptor{Name: "echo", Command: "/echo", Enabled: true}))
			_, err = first.Send(ctx, "/echo ping")
			require.NoError(t, err)
			want := first.Orchestrator.Messages()
			require.NoError(t, first.Close())

			second, err := Start(ctx, cfg, logger.Discard(), Options{})
			require.NoError(t, err)
			defer func() { require.NoError(t, second.Close()) }()

			got := second.Orchestrator.Messages()
			require.Len(t, got, len(want))
			assert.Equal(t, chat.TypePlugin, got[2].Type)
			assert.Equal(t, plugin.CustomResult{Plugin: "echo", Query: "ping", Response: `Custom plugin "echo" executed with: ping`}, got[2].PluginData)

			_, ok := second.Registry.Resolve("echo")
			assert.True(t, ok, "custom plugin should be restored from storage")
		})
	}
}

func TestStartWithInjectedStoreLeavesItOpen(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	s, err := Start(ctx, testConfig(t, "file"), logger.Discard(), Options{Store: kv})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = kv.Get(ctx, store.KeyConversation)
	assert.NoError(t, err)
}

func TestStartRejectsUnknownBackend(t *testing.T) {
	_, err := Start(context.Background(), testConfig(t, "redis"), logger.Discard(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}

func TestStartRequiresConfig(t *testing.T) {
	_, err := Start(context.Background(), nil, logger.Discard(), Options{})
	require.Error(t, err)
}
