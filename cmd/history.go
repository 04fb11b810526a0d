package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/render"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored conversation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := startRuntime(cmd.Context(), "cmd.history", runtimeOptions{quiet: true})
		if err != nil {
			return err
		}
		defer env.Close()

		return printHistory(cmd.OutOrStdout(), env.session, historyJSON)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print messages in their stored JSON form")
}

func printHistory(w io.Writer, sess *session.Session, asJSON bool) error {
	messages := sess.Orchestrator.Messages()
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(messages)
	}

	for _, msg := range messages {
		label := "assistant"
		if msg.Sender == chat.SenderUser {
			label = "you"
		}

		text := render.PlainText(msg, sess.Registry)
		if _, err := fmt.Fprintf(w, "[%s] %s:\n%s\n\n", msg.Timestamp.Local().Format("2006-01-02 15:04"), label, indent(text)); err != nil {
			return err
		}
	}

	return nil
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
