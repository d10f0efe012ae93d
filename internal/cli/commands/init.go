package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weslleycarlos/controle-presos/internal/cli/config"
)

// initOptions controls init behavior; tests skip the browser launch
type initOptions struct {
	skipBrowser bool
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <server-url>",
		Short: "Register a controle-presos server in the project config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWithOptions(args, &initOptions{})
		},
	}
}

func runInitWithOptions(args []string, opts *initOptions) error {
	serverURL, err := config.NormalizeURL(args[0])
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		// Load existing config
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Printf("Found existing %s\n", config.ConfigFileName)
	} else {
		// Create new config
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	// Check if server already exists
	serverExists := false
	for _, server := range cfg.Servers {
		if server.URL == serverURL {
			serverExists = true
			break
		}
	}

	if serverExists {
		fmt.Printf("Server %s already exists in %s\n", serverURL, config.ConfigFileName)
	} else {
		// Add new server
		var alias string
		if len(cfg.Servers) == 0 {
			alias = "production"
		} else {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			URL:   serverURL,
			Alias: alias,
		})

		// Save to file
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Printf("✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, serverURL, alias)
		} else {
			fmt.Printf("✓ Added server %s (%s) to ./%s\n", serverURL, alias, config.ConfigFileName)
		}
	}

	// Open browser to setup page
	if !opts.skipBrowser {
		setupURL := fmt.Sprintf("%s/setup", serverURL)
		fmt.Printf("\nOpening setup page at %s...\n", setupURL)

		if err := openBrowser(setupURL); err != nil {
			fmt.Printf("⚠ Could not open browser automatically: %v\n", err)
			fmt.Printf("Please visit: %s\n", setupURL)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Complete the setup wizard in your browser")
	fmt.Println("  2. Run 'controle login' to authenticate")

	return nil
}
