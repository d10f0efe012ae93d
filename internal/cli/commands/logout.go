package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	// Local cleanup always succeeds, even when the server is unreachable
	if err := env.session.Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("✓ Logged out of %s (%s)\n", env.server.Alias, env.server.URL)
	return nil
}
