// Package render turns stored plugin messages back into presentation by
// looking the owning plugin up in the active registry.
package render

import (
	"strings"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

// Resolver finds an active plugin by name.
type Resolver interface {
	Resolve(name string) (plugin.Plugin, bool)
}

// Card renders a plugin message. It reports false for text messages and for
// plugin messages whose plugin is no longer active.
func Card(msg chat.Message, plugins Resolver) (plugin.Card, bool) {
	if msg.Type != chat.TypePlugin || msg.PluginData == nil {
		return plugin.Card{}, false
	}

	p, ok := plugins.Resolve(msg.PluginName)
	if !ok {
		return plugin.Card{}, false
	}

	card := p.Render(msg.PluginData)
	if card.IsZero() {
		return plugin.Card{}, false
	}
	return card, true
}

// PlainText flattens a message and its card for text-only surfaces.
func PlainText(msg chat.Message, plugins Resolver) string {
	card, ok := Card(msg, plugins)
	if !ok {
		return msg.Content
	}

	var b strings.Builder
	if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString(CardText(card))
	return b.String()
}

// CardText lays a card out as plain lines.
func CardText(card plugin.Card) string {
	lines := make([]string, 0, 3+len(card.Rows))
	if card.Title != "" {
		lines = append(lines, card.Title)
	}
	if card.Subtitle != "" {
		lines = append(lines, card.Subtitle)
	}
	for _, row := range card.Rows {
		lines = append(lines, row.Label+": "+row.Value)
	}
	if card.Body != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, card.Body)
	}

	return strings.Join(lines, "\n")
}
