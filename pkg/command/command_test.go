package command

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/store"
)

func builtins() []plugin.Plugin {
	return plugin.Builtins(plugin.Options{Store: store.NewMemory()})
}

func TestParseBuiltinCommands(t *testing.T) {
	plugins := builtins()

	rapid.Check(t, func(t *rapid.T) {
		p := rapid.SampledFrom(plugins).Draw(t, "plugin")
		arg := rapid.StringMatching(`[A-Za-z0-9(][A-Za-z0-9 +*/().-]{0,24}`).Draw(t, "arg")
		sep := rapid.StringMatching(`[ \t]{1,3}`).Draw(t, "sep")
		command := p.Command()
		if rapid.Bool().Draw(t, "upper") {
			command = strings.ToUpper(command)
		}

		match, ok := Parse(command+sep+arg, plugins)
		if !ok {
			t.Fatalf("expected %q to match %s", command+sep+arg, p.Name())
		}
		if match.PluginName != p.Name() || match.Args != arg {
			t.Fatalf("Parse() = %+v, want {%s %q}", match, p.Name(), arg)
		}

		if _, ok := Parse(p.Command(), plugins); ok {
			t.Fatalf("bare %s must not match", p.Command())
		}
		if _, ok := Parse(p.Command()+sep, plugins); ok {
			t.Fatalf("%s with only whitespace must not match", p.Command())
		}
	})
}

func TestParseFirstMatchWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		token := rapid.StringMatching(`[a-z][a-z0-9_-]{0,10}`).Draw(t, "token")
		arg := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "arg")

		first := plugin.NewCustom(plugin.Descriptor{Name: "first", Command: token}.Normalize())
		second := plugin.NewCustom(plugin.Descriptor{Name: "second", Command: token}.Normalize())

		match, ok := Parse("/"+token+" "+arg, []plugin.Plugin{first, second})
		if !ok || match.PluginName != "first" {
			t.Fatalf("Parse() = %+v, %v; want first", match, ok)
		}

		match, ok = Parse("/"+token+" "+arg, []plugin.Plugin{second, first})
		if !ok || match.PluginName != "second" {
			t.Fatalf("Parse() = %+v, %v; want second", match, ok)
		}
	})
}

func TestParseTable(t *testing.T) {
	plugins := builtins()

	tests := []struct {
		input  string
		want   Match
		wantOK bool
	}{
		{input: "/weather Paris", want: Match{PluginName: "weather", Args: "Paris"}, wantOK: true},
		{input: "/Calc 2+2", want: Match{PluginName: "calc", Args: "2+2"}, wantOK: true},
		{input: "/gemini-key abc", want: Match{PluginName: "gemini-key", Args: "abc"}, wantOK: true},
		{input: "/gemini tell me a joke", want: Match{PluginName: "gemini", Args: "tell me a joke"}, wantOK: true},
		{input: "/define", wantOK: false},
		{input: "please /weather Paris", wantOK: false},
		{input: "/weatherParis", wantOK: false},
		{input: "/unknown thing", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := Parse(tc.input, plugins)
			if ok != tc.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Resolution
	}{
		{
			name:  "weather with preposition",
			input: "what's the weather in Paris",
			want: Resolution{
				PluginName: "weather", Args: "Paris",
				Intro:   "Here's the weather for Paris:",
				Failure: "I couldn't get the weather for Paris. Please try using the /weather command directly.",
			},
		},
		{
			name:  "weather for",
			input: "Weather for New York",
			want: Resolution{
				PluginName: "weather", Args: "New York",
				Intro:   "Here's the weather for New York:",
				Failure: "I couldn't get the weather for New York. Please try using the /weather command directly.",
			},
		},
		{name: "weather without preposition", input: "Weather London", want: Resolution{Reply: WeatherHint}},
		{name: "weather forecast", input: "weather forecast", want: Resolution{Reply: WeatherHint}},
		{name: "weather today", input: "how's the weather today", want: Resolution{Reply: WeatherHint}},
		{name: "weather adjective", input: "is the weather nice", want: Resolution{Reply: WeatherHint}},
		{name: "weather without city", input: "nice weather", want: Resolution{Reply: WeatherHint}},
		{name: "weather dangling preposition", input: "weather in", want: Resolution{Reply: WeatherHint}},
		{name: "explicit weather prefix", input: "/weather", want: Resolution{Reply: GenericReply}},
		{
			name:  "calculate",
			input: "Can you calculate (3 + 4) * 2?",
			want: Resolution{
				PluginName: "calc", Args: "(3 + 4) * 2",
				Intro:   "Here's the calculation result:",
				Failure: `I couldn't calculate "(3 + 4) * 2". Please try using the /calc command directly.`,
			},
		},
		{
			name:  "what is",
			input: "what is 12/4",
			want: Resolution{
				PluginName: "calc", Args: "12/4",
				Intro:   "Here's the calculation result:",
				Failure: `I couldn't calculate "12/4". Please try using the /calc command directly.`,
			},
		},
		{name: "what is without numbers", input: "what is love", want: Resolution{Reply: GenericReply}},
		{
			name:  "define quoted",
			input: `what does "ephemeral" mean`,
			want: Resolution{
				PluginName: "define", Args: "ephemeral",
				Intro:   `Here's the definition of "ephemeral":`,
				Failure: `I couldn't find the definition of "ephemeral". Please try using the /define command directly.`,
			},
		},
		{
			name:  "meaning of the word",
			input: "meaning of the word serendipity",
			want: Resolution{
				PluginName: "define", Args: "serendipity",
				Intro:   `Here's the definition of "serendipity":`,
				Failure: `I couldn't find the definition of "serendipity". Please try using the /define command directly.`,
			},
		},
		{name: "definition without word falls through to help", input: "definition help", want: Resolution{Reply: HelpText}},
		{name: "greeting", input: "Hello there", want: Resolution{Reply: GreetingReply}},
		{name: "hi exact", input: "hi", want: Resolution{Reply: GreetingReply}},
		{name: "hi prefix", input: "hi bot", want: Resolution{Reply: GreetingReply}},
		{name: "hit is not hi", input: "hit", want: Resolution{Reply: GenericReply}},
		{name: "help", input: "I need help", want: Resolution{Reply: HelpText}},
		{name: "generic", input: "tell me a story", want: Resolution{Reply: GenericReply}},
		{name: "weather beats greeting", input: "hello, weather for Rome please", want: Resolution{
			PluginName: "weather", Args: "Rome please",
			Intro:   "Here's the weather for Rome please:",
			Failure: "I couldn't get the weather for Rome please. Please try using the /weather command directly.",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.input)
			if got != tc.want {
				t.Fatalf("Resolve(%q) =\n%+v\nwant\n%+v", tc.input, got, tc.want)
			}
			if got.Routed() != (tc.want.PluginName != "") {
				t.Fatalf("Routed() = %v", got.Routed())
			}
		})
	}
}
