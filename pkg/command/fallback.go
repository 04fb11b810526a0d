package command

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

const commandList = "- `/weather [city]` - Get weather information\n" +
	"- `/calc [expression]` - Calculate a math expression\n" +
	"- `/define [word]` - Look up a word's definition"

// Canned replies.
const (
	WelcomeText   = "Hi there! I'm your AI assistant. You can ask me questions or try these commands:\n\n" + commandList
	HelpText      = "I can help you with several tasks. Try using one of these commands:\n\n" + commandList
	GreetingReply = "Hello! How can I help you today?"
	GenericReply  = "I'm not sure how to respond to that. Try asking for help or using one of our commands like /weather, /calc, or /define."
	WeatherHint   = "If you're looking for weather information, try using the command `/weather [city]`."
)

var (
	weatherCity    = regexp.MustCompile(`(?i)weather\s+(?:in|for|at)?\s+([A-Za-z\s]+)`)
	calcExpression = regexp.MustCompile(`(?i)(?:calculate|what is|what's|whats)\s+([0-9+\-*/() .]+)`)
	defineWord     = regexp.MustCompile(`(?i)(?:define|meaning of|what does|definition of)\s+(?:the word\s+)?['"]?([a-zA-Z]+)['"]?`)
	calcSymbol     = regexp.MustCompile(`[0-9+\-*/()]`)
)

// Resolution is the outcome of fallback resolution: either a plugin route or
// a plain text reply.
type Resolution struct {
	PluginName string
	Args       string
	// Intro is the assistant text shown above the plugin result.
	Intro string
	// Failure replaces the generic error text when the routed plugin fails.
	Failure string
	// Reply is set when no plugin is routed.
	Reply string
}

// Routed reports whether the resolution targets a plugin.
func (r Resolution) Routed() bool {
	return r.PluginName != ""
}

// Resolve applies the keyword triggers in order: weather, calculator,
// dictionary, greeting, help, then the generic reply. Only the first
// satisfied branch fires.
func Resolve(text string) Resolution {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "weather") && !strings.HasPrefix(lower, "/weather") {
		city := extract(weatherCity, text)
		if city == "" {
			return Resolution{Reply: WeatherHint}
		}
		return Resolution{
			PluginName: plugin.NameWeather,
			Args:       city,
			Intro:      fmt.Sprintf("Here's the weather for %s:", city),
			Failure:    fmt.Sprintf("I couldn't get the weather for %s. Please try using the /weather command directly.", city),
		}
	}

	if (strings.Contains(lower, "calculate") || strings.Contains(lower, "what is")) &&
		calcSymbol.MatchString(lower) && !strings.HasPrefix(lower, "/calc") {
		if expression := extract(calcExpression, text); expression != "" {
			return Resolution{
				PluginName: plugin.NameCalc,
				Args:       expression,
				Intro:      "Here's the calculation result:",
				Failure:    fmt.Sprintf("I couldn't calculate %q. Please try using the /calc command directly.", expression),
			}
		}
	}

	if containsAny(lower, "define", "meaning of", "what does", "definition") && !strings.HasPrefix(lower, "/define") {
		if word := extract(defineWord, text); word != "" {
			return Resolution{
				PluginName: plugin.NameDefine,
				Args:       word,
				Intro:      fmt.Sprintf("Here's the definition of %q:", word),
				Failure:    fmt.Sprintf("I couldn't find the definition of %q. Please try using the /define command directly.", word),
			}
		}
	}

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi ") || lower == "hi":
		return Resolution{Reply: GreetingReply}
	case strings.Contains(lower, "help"):
		return Resolution{Reply: HelpText}
	default:
		return Resolution{Reply: GenericReply}
	}
}

func extract(pattern *regexp.Regexp, text string) string {
	groups := pattern.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}

	return strings.TrimSpace(groups[1])
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
