/*
Package config manages the TOML config for tableserve.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/tableserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Session SessionConfig `toml:"session"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
}

// SessionConfig selects the dictionary every new session opens.
type SessionConfig struct {
	Backend       string `toml:"backend"`
	Dictionary    string `toml:"dictionary"`
	WideningStart int    `toml:"widening_start"`
	MaxCandidates int    `toml:"max_candidates"`
	PageSize      int    `toml:"page_size"`
}

// CacheConfig sizes the per-session lookup cache. 0 disables it.
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxPreedit int `toml:"max_preedit"`
}

// CliConfig holds interactive mode options.
type CliConfig struct {
	Verbose bool `toml:"verbose"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/tableserve
// 2. ~/Library/Application Support/tableserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "tableserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "tableserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/tableserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Backend:       "auto",
			Dictionary:    "",
			WideningStart: 1,
			MaxCandidates: 64,
			PageSize:      10,
		},
		Cache: CacheConfig{
			MaxEntries: 256,
		},
		Server: ServerConfig{
			MaxPreedit: 64,
		},
		CLI: CliConfig{
			Verbose: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// defaults; a file that fails strict decoding is recovered section by
// section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	data, err := utils.ParseTOMLMap(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(data, "session"); ok {
		extractSessionConfig(section, &config.Session)
	}
	if section, ok := utils.ExtractSection(data, "cache"); ok {
		if val, ok := utils.ExtractInt(section, "max_entries"); ok {
			config.Cache.MaxEntries = val
		}
	}
	if section, ok := utils.ExtractSection(data, "server"); ok {
		if val, ok := utils.ExtractInt(section, "max_preedit"); ok {
			config.Server.MaxPreedit = val
		}
	}
	if section, ok := utils.ExtractSection(data, "cli"); ok {
		if val, ok := utils.ExtractBool(section, "verbose"); ok {
			config.CLI.Verbose = val
		}
	}
	return config, nil
}

func extractSessionConfig(data map[string]any, session *SessionConfig) {
	if val, ok := utils.ExtractString(data, "backend"); ok {
		session.Backend = val
	}
	if val, ok := utils.ExtractString(data, "dictionary"); ok {
		session.Dictionary = val
	}
	if val, ok := utils.ExtractInt(data, "widening_start"); ok {
		session.WideningStart = val
	}
	if val, ok := utils.ExtractInt(data, "max_candidates"); ok {
		session.MaxCandidates = val
	}
	if val, ok := utils.ExtractInt(data, "page_size"); ok {
		session.PageSize = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the session defaults and saves to file. Nil arguments
// leave values untouched.
func (c *Config) Update(configPath string, backend, dictionary *string, wideningStart, maxCandidates, pageSize *int) error {
	session := &c.Session
	if backend != nil {
		session.Backend = *backend
	}
	if dictionary != nil {
		session.Dictionary = *dictionary
	}
	if wideningStart != nil {
		session.WideningStart = *wideningStart
	}
	if maxCandidates != nil {
		session.MaxCandidates = *maxCandidates
	}
	if pageSize != nil {
		session.PageSize = *pageSize
	}
	return SaveConfig(c, configPath)
}
