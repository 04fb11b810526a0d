// Package command turns raw chat input into a plugin invocation, either from
// explicit "/command argument" syntax or from loose natural-language phrasing.
package command

import (
	"strings"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

// Match is an explicit plugin invocation found by Parse.
type Match struct {
	PluginName string
	Args       string
}

// Parse returns the first plugin, in the given order, whose pattern matches
// text with a non-blank argument.
func Parse(text string, plugins []plugin.Plugin) (Match, bool) {
	for _, p := range plugins {
		groups := p.Pattern().FindStringSubmatch(text)
		if len(groups) < 2 || strings.TrimSpace(groups[1]) == "" {
			continue
		}

		return Match{PluginName: p.Name(), Args: groups[1]}, true
	}

	return Match{}, false
}
