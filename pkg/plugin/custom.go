package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// commandToken restricts custom command tokens so patterns rebuilt from them
// never carry user-supplied regex syntax.
var commandToken = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Descriptor is the persisted, data-only form of a user-defined plugin.
// Command is stored without the leading slash; Pattern is informational.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Pattern     string `json:"pattern"`
	Enabled     bool   `json:"enabled"`
}

// Normalize trims fields, strips a leading slash from the command and fills
// the informational pattern text.
func (d Descriptor) Normalize() Descriptor {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Command = NormalizeCommand(d.Command)
	d.Pattern = CommandPattern(d.Command).String()
	return d
}

// ValidCommandToken reports whether token can be used as a custom command.
func ValidCommandToken(token string) bool {
	return commandToken.MatchString(token)
}

// Custom is a user-defined plugin. Its executor echoes the argument back.
type Custom struct {
	info
}

// NewCustom synthesizes a runnable plugin from a normalized descriptor.
func NewCustom(desc Descriptor) *Custom {
	return &Custom{info: newInfo(desc.Name, desc.Description, desc.Command)}
}

func (c *Custom) Execute(_ context.Context, args string) (Result, error) {
	return CustomResult{
		Plugin:   c.name,
		Query:    args,
		Response: fmt.Sprintf("Custom plugin %q executed with: %s", c.name, args),
	}, nil
}

func (c *Custom) Render(result Result) Card {
	data, ok := result.(CustomResult)
	if !ok {
		return Card{}
	}

	return Card{
		Title: c.name,
		Rows: []Row{
			{Label: "Query", Value: data.Query},
			{Label: "Response", Value: data.Response},
		},
	}
}
