package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/plugin"
	"github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/session"
)

var (
	customName        string
	customCommand     string
	customDescription string
	customDisabled    bool
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage built-in and custom plugins",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom plugins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, "cmd.plugins", func(sess *session.Session) error {
			return listPlugins(cmd.Context(), cmd.OutOrStdout(), sess)
		})
	},
}

var pluginsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a custom plugin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		desc := plugin.Descriptor{
			Name:        customName,
			Description: customDescription,
			Command:     customCommand,
			Enabled:     !customDisabled,
		}
		return withSession(cmd, "cmd.plugins", func(sess *session.Session) error {
			return addPlugin(cmd.Context(), cmd.OutOrStdout(), sess, desc)
		})
	},
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "enable <command>",
	Short: "Enable a custom plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "cmd.plugins", func(sess *session.Session) error {
			return setPluginEnabled(cmd.Context(), cmd.OutOrStdout(), sess, args[0], true)
		})
	},
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "disable <command>",
	Short: "Disable a custom plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "cmd.plugins", func(sess *session.Session) error {
			return setPluginEnabled(cmd.Context(), cmd.OutOrStdout(), sess, args[0], false)
		})
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
	pluginsCmd.AddCommand(pluginsListCmd, pluginsAddCmd, pluginsEnableCmd, pluginsDisableCmd)

	pluginsAddCmd.Flags().StringVar(&customName, "name", "", "plugin name")
	pluginsAddCmd.Flags().StringVar(&customCommand, "command", "", "command token, with or without the leading slash")
	pluginsAddCmd.Flags().StringVar(&customDescription, "description", "", "short description")
	pluginsAddCmd.Flags().BoolVar(&customDisabled, "disabled", false, "store the plugin without activating it")
	_ = pluginsAddCmd.MarkFlagRequired("name")
	_ = pluginsAddCmd.MarkFlagRequired("command")
}

func withSession(cmd *cobra.Command, component string, fn func(*session.Session) error) error {
	env, err := startRuntime(cmd.Context(), component, runtimeOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	return fn(env.session)
}

func listPlugins(ctx context.Context, w io.Writer, sess *session.Session) error {
	rows := make([][]string, 0)
	for _, p := range sess.Registry.List() {
		if sess.Registry.IsBuiltin(p.Name()) {
			rows = append(rows, []string{p.Name(), p.Command(), "built-in", "yes", p.Description()})
		}
	}

	custom, err := sess.Registry.CustomPlugins(ctx)
	if err != nil {
		return err
	}
	for _, desc := range custom {
		rows = append(rows, []string{desc.Name, "/" + desc.Command, "custom", yesNo(desc.Enabled), desc.Description})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "COMMAND", "KIND", "ENABLED", "DESCRIPTION").
		Rows(rows...)

	_, err = fmt.Fprintln(w, t.String())
	return err
}

func addPlugin(ctx context.Context, w io.Writer, sess *session.Session, desc plugin.Descriptor) error {
	desc = desc.Normalize()
	if err := sess.Registry.Register(ctx, desc); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Saved plugin %q as /%s (enabled: %s)\n", desc.Name, desc.Command, strconv.FormatBool(desc.Enabled))
	return err
}

func setPluginEnabled(ctx context.Context, w io.Writer, sess *session.Session, command string, enabled bool) error {
	if err := sess.Registry.SetEnabled(ctx, command, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	_, err := fmt.Fprintf(w, "/%s %s\n", plugin.NormalizeCommand(command), state)
	return err
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
