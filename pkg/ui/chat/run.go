// Package chat is the interactive terminal front end for the hub.
package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/bus"
	chatcore "github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
)

// Backend is the conversation the UI drives.
type Backend interface {
	Send(ctx context.Context, content string) ([]chatcore.Message, error)
	Messages() []chatcore.Message
}

// Plugins resolves plugin messages to cards and lists the active set.
type Plugins interface {
	Resolve(name string) (plugin.Plugin, bool)
	List() []plugin.Plugin
}

// RuntimeInfo is shown in the header.
type RuntimeInfo struct {
	StorageBackend string
}

// Deps wires the UI to a running session. Events is optional; when set,
// notifications published on it are shown as toasts.
type Deps struct {
	Backend Backend
	Plugins Plugins
	Events  <-chan bus.Event
	Info    RuntimeInfo
}

func RunInteractive(ctx context.Context, deps Deps) error {
	model := newModel(ctx, deps, modeInteractive, "")
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	if err != nil {
		return err
	}

	fmt.Println(renderGoodbyeBanner())
	return nil
}

func RunOneShot(ctx context.Context, deps Deps, content string) error {
	model := newModel(ctx, deps, modeOneShot, content)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("88")).
		Padding(1, 2)

	return style.Render("💬 Thanks for chatting. Your conversation is saved.")
}
