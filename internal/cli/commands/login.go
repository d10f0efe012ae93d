package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a controle-presos server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CONTROLE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CONTROLE_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("CONTROLE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CONTROLE_PASSWORD")
	}

	// Validate email
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or CONTROLE_EMAIL env var)")
	}

	env, err := newSessionEnv()
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or CONTROLE_PASSWORD env var)")
		}
	}

	// Attempt login; the session manager persists the token and resolves
	// the session state
	fmt.Printf("Logging in to %s (%s)...\n", env.server.Alias, env.server.URL)

	user, err := env.session.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", user.Name, user.Email)
	if user.IsAdmin() {
		fmt.Println("  Role: Admin")
	}

	return nil
}
