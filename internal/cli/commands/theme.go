package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewThemeCmd creates the theme command
func NewThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the display theme preference",
		Long: `Show or set the display theme preference.

Without an argument, prints the effective theme (the authenticated user's
preference, or the locally cached value). With an argument, saves the theme
locally and syncs it to the server; a failed sync keeps the local value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runShowTheme(cmd)
			}
			return runSetTheme(cmd, args[0])
		},
	}
}

func runShowTheme(cmd *cobra.Command) error {
	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	env.session.Resolve(cmd.Context())
	fmt.Println(env.session.Theme())
	return nil
}

func runSetTheme(cmd *cobra.Command, theme string) error {
	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	env.session.Resolve(cmd.Context())

	if err := env.session.SetTheme(cmd.Context(), theme); err != nil {
		return err
	}

	fmt.Printf("✓ Theme set to %s\n", theme)
	return nil
}
