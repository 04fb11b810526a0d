package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/command"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/logger"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/registry"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()

	cfg := config.Default()
	cfg.Chat.ReplyDelayMillis = -1
	cfg.Plugins.Weather.SimulatedDelayMillis = -1

	sess, err := session.Start(context.Background(), cfg, logger.Discard(), session.Options{Store: store.NewMemory()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestResolveMessage(t *testing.T) {
	saved := messageText
	t.Cleanup(func() { messageText = saved })

	messageText = ""
	assert.Equal(t, "/calc 1 + 1", resolveMessage([]string{"/calc", "1", "+", "1"}))
	assert.Empty(t, resolveMessage([]string{"  "}))

	messageText = "  hello  "
	assert.Equal(t, "hello", resolveMessage([]string{"ignored"}))
}

func TestSendOncePrintsPluginCard(t *testing.T) {
	sess := newTestSession(t)

	var out bytes.Buffer
	require.NoError(t, sendOnce(context.Background(), &out, sess, "/calc (2+3)*4"))

	assert.Equal(t, "Results for /calc (2+3)*4:\n\nCalculator\nExpression: (2+3)*4\nResult: 20\n", out.String())
	assert.Len(t, sess.Orchestrator.Messages(), 3)
}

func TestSendOnceCannedReply(t *testing.T) {
	sess := newTestSession(t)

	var out bytes.Buffer
	require.NoError(t, sendOnce(context.Background(), &out, sess, "hi there"))
	assert.Equal(t, command.GreetingReply+"\n", out.String())
}

func TestSendOnceBlankWritesNothing(t *testing.T) {
	sess := newTestSession(t)

	var out bytes.Buffer
	require.NoError(t, sendOnce(context.Background(), &out, sess, "   "))
	assert.Empty(t, out.String())
	assert.Len(t, sess.Orchestrator.Messages(), 1)
}

func TestPrintHistory(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.Send(context.Background(), "/calc 3*3")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, sess, false))

	text := out.String()
	assert.Contains(t, text, "] assistant:\n")
	assert.Contains(t, text, "] you:\n  /calc 3*3")
	assert.Contains(t, text, "  Result: 9")
	assert.Equal(t, 1, strings.Count(text, "] you:"))
	assert.Equal(t, 2, strings.Count(text, "] assistant:"))
}

func TestPrintHistoryJSON(t *testing.T) {
	sess := newTestSession(t)
	_, err := sess.Send(context.Background(), "/calc 3*3")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, sess, true))

	var decoded []chat.Message
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, chat.SenderUser, decoded[1].Sender)
	assert.Equal(t, plugin.NameCalc, decoded[2].PluginName)
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", indent("a\n\nb\n"))
}

func TestPluginsAddListAndToggle(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, addPlugin(ctx, &out, sess, plugin.Descriptor{Name: " Joke ", Command: "/joke", Description: "Tells jokes", Enabled: true}))
	assert.Equal(t, "Saved plugin \"Joke\" as /joke (enabled: true)\n", out.String())

	out.Reset()
	require.NoError(t, listPlugins(ctx, &out, sess))
	listing := out.String()
	for _, want := range []string{"NAME", "weather", "/calc", "built-in", "Joke", "/joke", "custom", "Tells jokes"} {
		assert.Contains(t, listing, want)
	}

	out.Reset()
	require.NoError(t, setPluginEnabled(ctx, &out, sess, "/joke", false))
	assert.Equal(t, "/joke disabled\n", out.String())

	_, ok := sess.Registry.Resolve("Joke")
	assert.False(t, ok)

	custom, err := sess.Registry.CustomPlugins(ctx)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.False(t, custom[0].Enabled)

	out.Reset()
	require.NoError(t, setPluginEnabled(ctx, &out, sess, "joke", true))
	assert.Equal(t, "/joke enabled\n", out.String())
	_, ok = sess.Registry.Resolve("Joke")
	assert.True(t, ok)
}

func TestPluginsErrors(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := addPlugin(ctx, &out, sess, plugin.Descriptor{Name: plugin.NameWeather, Command: "forecast", Enabled: true})
	require.ErrorIs(t, err, registry.ErrReservedName)

	err = setPluginEnabled(ctx, &out, sess, "missing", true)
	require.ErrorIs(t, err, registry.ErrUnknownCommand)
	assert.Empty(t, out.String())
}
