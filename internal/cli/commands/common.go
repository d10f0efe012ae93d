package commands

import (
	"fmt"
	"net/url"

	"github.com/weslleycarlos/controle-presos/internal/cli/client"
	"github.com/weslleycarlos/controle-presos/internal/cli/config"
	"github.com/weslleycarlos/controle-presos/internal/cli/credentials"
	"github.com/weslleycarlos/controle-presos/internal/cli/session"
	"github.com/weslleycarlos/controle-presos/internal/cli/userconfig"
	"github.com/weslleycarlos/controle-presos/internal/logger"
)

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer() (*config.Server, error) {
	// Load config
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'controle init' to create a configuration file", err)
	}

	// Respect the server selected via 'controle select-server'
	if alias, err := userconfig.GetSelectedServer(); err == nil && alias != "" {
		if server, err := cfg.GetServerByAlias(alias); err == nil {
			return server, nil
		}
	}

	server, err := cfg.GetDefaultServer()
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	return server, nil
}

// sessionEnv bundles everything a command needs to talk to the selected
// server through the session layer
type sessionEnv struct {
	server  *config.Server
	client  *client.Client
	session *session.Manager
}

// newSessionEnv resolves the selected server and wires the credential
// store, API client and session manager together
func newSessionEnv() (*sessionEnv, error) {
	server, err := getSelectedServer()
	if err != nil {
		return nil, err
	}

	baseURL, err := config.NormalizeURL(server.URL)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	log := logger.GetLogger()

	apiClient, err := client.New(baseURL, credentials.Default, log)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(apiClient, credentials.Default, parsed.Host, userconfig.FileThemeCache{}, log)

	return &sessionEnv{
		server:  server,
		client:  apiClient,
		session: manager,
	}, nil
}
