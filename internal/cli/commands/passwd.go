package commands

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewPasswdCmd creates the passwd command
func NewPasswdCmd() *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the current user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswd(cmd, oldPassword, newPassword)
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old-password", "", "Current password (will prompt if not provided)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (will prompt if not provided)")

	return cmd
}

func runPasswd(cmd *cobra.Command, oldPassword, newPassword string) error {
	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	if oldPassword == "" {
		oldPassword, err = promptPassword("Current password: ")
		if err != nil {
			return err
		}
	}
	if newPassword == "" {
		newPassword, err = promptPassword("New password: ")
		if err != nil {
			return err
		}
	}

	// A 401 here means the stored session is gone; route it through the
	// session layer so local state gets cleaned up
	if err := env.client.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
		return env.session.HandleRequestError(err)
	}

	fmt.Println("✓ Password changed")
	return nil
}

// promptPassword reads a password without echo; fails in non-interactive mode
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use the command flags)")
	}

	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(raw), nil
}
