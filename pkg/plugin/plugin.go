// Package plugin defines the pattern-matched handlers the chat dispatches to
// and the built-in set shipped with the hub.
package plugin

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/config"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

// Built-in plugin names. Each name doubles as the command token.
const (
	NameWeather   = "weather"
	NameCalc      = "calc"
	NameDefine    = "define"
	NameGemini    = "gemini"
	NameGeminiKey = "gemini-key"
)

// Plugin is a named handler for "/command argument" input.
type Plugin interface {
	Name() string
	Description() string
	// Command returns the "/name" form shown to users.
	Command() string
	// Pattern is anchored on the command token and captures one argument group.
	Pattern() *regexp.Regexp
	Execute(ctx context.Context, args string) (Result, error)
	// Render returns the zero Card when given another plugin's result.
	Render(result Result) Card
}

// Card is the presentation-neutral rendering of a plugin result.
type Card struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Rows     []Row  `json:"rows,omitempty"`
	Body     string `json:"body,omitempty"`
}

// Row is one labelled value on a Card.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// IsZero reports whether the card has nothing to show.
func (c Card) IsZero() bool {
	return c.Title == "" && c.Subtitle == "" && len(c.Rows) == 0 && c.Body == ""
}

// CommandPattern builds the case-insensitive "/token argument" matcher.
func CommandPattern(token string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^/` + regexp.QuoteMeta(token) + `\s+(.+)$`)
}

// info carries the identity shared by every plugin implementation.
type info struct {
	name        string
	description string
	token       string
	pattern     *regexp.Regexp
}

func newInfo(name, description, token string) info {
	return info{name: name, description: description, token: token, pattern: CommandPattern(token)}
}

func (i info) Name() string            { return i.name }
func (i info) Description() string     { return i.description }
func (i info) Command() string         { return "/" + i.token }
func (i info) Pattern() *regexp.Regexp { return i.pattern }

// Options wires the built-in set to its collaborators.
type Options struct {
	Config     config.PluginsConfig
	Store      store.Store
	HTTPClient *http.Client
	// IntN overrides the weather randomness; nil uses math/rand/v2.
	IntN func(n int) int
}

// Builtins returns the fixed built-in plugins in registration order.
func Builtins(opts Options) []Plugin {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return []Plugin{
		NewWeather(millis(opts.Config.Weather.SimulatedDelayMillis), opts.IntN),
		NewCalculator(),
		NewDictionary(opts.Config.Dictionary, client),
		NewGemini(opts.Config.Gemini, opts.Store, client),
		NewGeminiKey(opts.Store),
	}
}

// BuiltinNames lists the reserved plugin names.
func BuiltinNames() []string {
	return []string{NameWeather, NameCalc, NameDefine, NameGemini, NameGeminiKey}
}

// NormalizeCommand strips surrounding space and one leading slash.
func NormalizeCommand(command string) string {
	return strings.TrimPrefix(strings.TrimSpace(command), "/")
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
