package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/render"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
	chatui "github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/ui/chat"
)

var (
	messageText string
	plainOutput bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message or start an interactive chat",
	Long:  "Opens the stored conversation. With a message, sends it once and prints the reply; without one, starts the terminal chat UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		content := resolveMessage(args)
		ctx := cmd.Context()

		env, err := startRuntime(ctx, "cmd.chat", runtimeOptions{quiet: !plainOutput || content == ""})
		if err != nil {
			return err
		}
		defer env.Close()

		deps := chatui.Deps{
			Backend: env.session.Orchestrator,
			Plugins: env.session.Registry,
			Info:    chatui.RuntimeInfo{StorageBackend: env.cfg.Storage.Backend},
		}

		if content != "" {
			if plainOutput {
				return sendOnce(ctx, cmd.OutOrStdout(), env.session, content)
			}
			return chatui.RunOneShot(ctx, deps, content)
		}

		events, unsubscribe := env.session.Events.Subscribe(ctx, 16)
		defer unsubscribe()
		deps.Events = events

		return chatui.RunInteractive(ctx, deps)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&messageText, "message", "m", "", "message text to send")
	chatCmd.Flags().BoolVar(&plainOutput, "plain", false, "print the reply as plain text instead of the terminal UI")
}

func resolveMessage(args []string) string {
	if value := strings.TrimSpace(messageText); value != "" {
		return value
	}

	return strings.TrimSpace(strings.Join(args, " "))
}

// sendOnce sends content and writes the assistant reply as plain text.
func sendOnce(ctx context.Context, w io.Writer, sess *session.Session, content string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	appended, err := sess.Send(ctx, content)
	if errors.Is(err, chat.ErrBusy) {
		return errors.New("another message is still being processed")
	}
	if err != nil {
		return err
	}
	if len(appended) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(w, render.PlainText(appended[len(appended)-1], sess.Registry))
	return err
}
