package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvConfigDir overrides the base directory of every gdoc file
const EnvConfigDir = "GDOC_CONFIG_DIR"

// Output modes
const (
	OutputTerse   = "terse"
	OutputJSON    = "json"
	OutputPlain   = "plain"
	OutputVerbose = "verbose"
)

// Config holds application configuration
type Config struct {
	StateDir        string            `toml:"state_dir"`
	CredentialsFile string            `toml:"credentials_file"`
	TokenFile       string            `toml:"token_file"`
	LogFile         *string           `toml:"log_file"`
	Output          string            `toml:"output"`
	Settings        map[string]string `toml:"settings"`

	// Session settings (not persisted to TOML, overrides persisted settings)
	sessionSettings map[string]string
	path            string
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return defaultConfig("", ""), nil // Return default if can't find config path
	}

	return LoadFromFile(filepath.Join(dir, "config.toml"))
}

// LoadFromFile loads config from a specific file. Relative paths in the
// file are taken relative to its directory.
func LoadFromFile(filePath string) (*Config, error) {
	dir := filepath.Dir(filePath)

	// If file doesn't exist, return default config
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return defaultConfig(dir, filePath), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = toml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Output != "" && !ValidOutput(config.Output) {
		return nil, fmt.Errorf("invalid output mode %q in %s", config.Output, filePath)
	}

	config.path = filePath
	config.applyDefaults(dir)
	return &config, nil
}

func (c *Config) applyDefaults(dir string) {
	c.StateDir = resolve(dir, c.StateDir, "state")
	c.CredentialsFile = resolve(dir, c.CredentialsFile, "credentials.json")
	c.TokenFile = resolve(dir, c.TokenFile, "token.json")
	if c.LogFile == nil {
		logFile := filepath.Join(dir, "gdoc.log")
		c.LogFile = &logFile
	} else if *c.LogFile != "" {
		logFile := resolve(dir, *c.LogFile, "")
		c.LogFile = &logFile
	}

	// Initialize persisted settings if not present
	if c.Settings == nil {
		c.Settings = make(map[string]string)
	}

	// Initialize session settings
	c.sessionSettings = make(map[string]string)
}

// resolve makes value absolute against dir, using fallback when empty
func resolve(dir, value, fallback string) string {
	if value == "" {
		value = fallback
	}
	if dir == "" || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(dir, value)
}

// defaultConfig returns the default configuration
func defaultConfig(dir, path string) *Config {
	c := &Config{path: path}
	c.applyDefaults(dir)
	return c
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(home, ".config", "gdoc")
	return configDir, nil
}

// ValidOutput reports whether mode is a known output mode
func ValidOutput(mode string) bool {
	switch mode {
	case OutputTerse, OutputJSON, OutputPlain, OutputVerbose:
		return true
	}
	return false
}

// OutputMode returns the effective output mode. A session "output" setting
// wins over the configured one.
func (c *Config) OutputMode() string {
	if mode := c.Get("output"); ValidOutput(mode) {
		return mode
	}
	if ValidOutput(c.Output) {
		return c.Output
	}
	return OutputTerse
}

// LogPath returns the log file, or "" when logging is disabled
func (c *Config) LogPath() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

// Set sets a session configuration value
func (c *Config) Set(key, value string) {
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
}

// Unset removes a session configuration value
func (c *Config) Unset(key string) {
	delete(c.sessionSettings, key)
}

// Get retrieves a configuration value, checking session settings first (which override persisted settings)
// Returns empty string if not found in either source
func (c *Config) Get(key string) string {
	// Check session settings first (they override persisted settings)
	if c.sessionSettings != nil {
		if val, ok := c.sessionSettings[key]; ok {
			return val
		}
	}

	// Fall back to persisted settings
	if c.Settings != nil {
		if val, ok := c.Settings[key]; ok {
			return val
		}
	}

	return ""
}

// GetAll returns all configuration values (both persisted and session)
// Session settings override persisted settings with the same key
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string)

	// First, add all persisted settings
	for k, v := range c.Settings {
		result[k] = v
	}

	// Then override with session settings (they take precedence)
	for k, v := range c.sessionSettings {
		result[k] = v
	}

	return result
}

// Save persists the configuration to the TOML file it was loaded from.
// Session settings are not written.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
