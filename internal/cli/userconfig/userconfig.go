package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "controle-presos"
	configFileName = "config.json"
)

// UserConfig represents the user's local configuration stored in
// ~/.config/controle-presos/config.json. Theme is the locally cached
// display preference; it is written on every successful bootstrap and on
// every theme change, and cleared on logout.
type UserConfig struct {
	SelectedServerAlias string `json:"selected_server_alias,omitempty"`
	Theme               string `json:"theme,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server alias and saves the config
func SetSelectedServer(alias string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServerAlias = alias
	return Save(cfg)
}

// GetSelectedServer returns the selected server alias, or empty string if
// not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServerAlias, nil
}

// ThemeCache is the durable local store for the display preference. The
// session layer writes through it so the UI can render the right theme
// before any remote sync completes.
type ThemeCache interface {
	SaveTheme(theme string) error
	LoadTheme() (string, bool)
	ClearTheme() error
}

// FileThemeCache implements ThemeCache on the user config file
type FileThemeCache struct{}

// SaveTheme implements ThemeCache
func (FileThemeCache) SaveTheme(theme string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Theme = theme
	return Save(cfg)
}

// LoadTheme implements ThemeCache
func (FileThemeCache) LoadTheme() (string, bool) {
	cfg, err := Load()
	if err != nil || cfg.Theme == "" {
		return "", false
	}
	return cfg.Theme, true
}

// ClearTheme implements ThemeCache
func (FileThemeCache) ClearTheme() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if cfg.Theme == "" {
		return nil
	}
	cfg.Theme = ""
	return Save(cfg)
}
