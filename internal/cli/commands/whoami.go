package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weslleycarlos/controle-presos/internal/cli/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd)
		},
	}
}

func runWhoami(cmd *cobra.Command) error {
	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	env.session.Resolve(cmd.Context())

	if env.session.GuardProtected() != session.DecisionAllow {
		return fmt.Errorf("not logged in. Run 'controle login' first")
	}

	user, _ := env.session.CurrentUser()
	fmt.Printf("User:  %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Role:  %s\n", user.Role)
	fmt.Printf("Theme: %s\n", user.Theme)

	return nil
}
