package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	configDirName  = "shiftdesk"
	configFileName = "config.json"
)

// Session storage backends
const (
	StorageFile    = "file"
	StorageKeyring = "keyring"
	StorageMemory  = "memory"
)

// UserConfig represents the user's local configuration stored in $XDG_CONFIG_HOME/shiftdesk/config.json
type UserConfig struct {
	APIURL  string `json:"api_url,omitempty"`
	Storage string `json:"storage,omitempty"`
	Cache   bool   `json:"cache,omitempty"`
}

// ValidStorage reports whether name is a known session backend
func ValidStorage(name string) bool {
	switch name {
	case StorageFile, StorageKeyring, StorageMemory:
		return true
	}
	return false
}

// Dir returns the shiftdesk config directory
func Dir() string {
	return filepath.Join(xdg.ConfigHome, configDirName)
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() string {
	return filepath.Join(Dir(), configFileName)
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads the configuration at path. A missing file yields an empty config.
func LoadFrom(configPath string) (*UserConfig, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	if cfg.Storage != "" && !ValidStorage(cfg.Storage) {
		return nil, fmt.Errorf("invalid storage %q in %s (use file, keyring or memory)", cfg.Storage, configPath)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	return SaveTo(GetConfigPath(), cfg)
}

// SaveTo writes the configuration to path
func SaveTo(configPath string, cfg *UserConfig) error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
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

// ResolveAPIURL picks the API root: env value first, then the config file, then fallback
func (c *UserConfig) ResolveAPIURL(env, fallback string) string {
	if env != "" {
		return env
	}
	if c.APIURL != "" {
		return c.APIURL
	}
	return fallback
}

// ResolveStorage returns the configured backend, defaulting to the file backend
func (c *UserConfig) ResolveStorage() string {
	if c.Storage == "" {
		return StorageFile
	}
	return c.Storage
}
