package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weslleycarlos/controle-presos/internal/cli/config"
	"github.com/weslleycarlos/controle-presos/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server <url-or-alias>",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

Examples:
  $ controle select-server production              # Select by alias
  $ controle select-server https://presos.example  # Select by URL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectServer(args[0])
		},
	}

	return cmd
}

func runSelectServer(urlOrAlias string) error {
	// Load project config
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'controle init' to create a configuration file", err)
	}

	server, err := findServer(cfg, urlOrAlias)
	if err != nil {
		return err
	}

	// Save the selected server
	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Printf("Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}

// findServer matches by alias first, then by URL
func findServer(cfg *config.Config, urlOrAlias string) (*config.Server, error) {
	for i := range cfg.Servers {
		if cfg.Servers[i].Alias == urlOrAlias {
			return &cfg.Servers[i], nil
		}
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].URL == urlOrAlias {
			return &cfg.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("no server with URL or alias %q found in %s", urlOrAlias, config.ConfigFileName)
}
