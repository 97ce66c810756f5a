// Package config holds the application settings and the provider store.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"claudeswap/config/storage"
	"claudeswap/internal/logging"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName names the data directory and the environment prefix
	AppName = "claudeswap"

	// SettingsFile is the settings file name inside the data directory
	SettingsFile = "config.toml"

	// EnvPrefix prefixes environment overrides, e.g. CLAUDESWAP_CLAUDE_DIR
	EnvPrefix = "CLAUDESWAP"
)

// Access modes
const (
	AccessDirect = "direct"
	AccessScoped = "scoped"
)

// Store backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Settings is the effective application configuration
type Settings struct {
	ClaudeDir string        `mapstructure:"claude_dir" toml:"claude_dir"`
	DataDir   string        `mapstructure:"data_dir" toml:"data_dir"`
	Access    string        `mapstructure:"access" toml:"access"`
	Store     StoreSettings `mapstructure:"store" toml:"store"`
	Log       LogSettings   `mapstructure:"log" toml:"log"`

	// file the settings were read from, empty when defaults only
	source string
}

// StoreSettings selects the preference backend
type StoreSettings struct {
	Backend       string `mapstructure:"backend" toml:"backend"`
	EncryptTokens bool   `mapstructure:"encrypt_tokens" toml:"encrypt_tokens"`
}

// LogSettings configures the slog logger
type LogSettings struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// DefaultDataDir returns $XDG_CONFIG_HOME/claudeswap, falling back to ~/.config/claudeswap
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultClaudeDir returns ~/.claude
func DefaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		ClaudeDir: DefaultClaudeDir(),
		DataDir:   DefaultDataDir(),
		Access:    AccessDirect,
		Store: StoreSettings{
			Backend: BackendJSON,
		},
		Log: LogSettings{
			Level:  string(logging.LevelWarn),
			Format: string(logging.FormatText),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("claude_dir", d.ClaudeDir)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("access", d.Access)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.encrypt_tokens", d.Store.EncryptTokens)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// LoadSettings reads defaults, then the settings file, then CLAUDESWAP_*
// environment variables. An explicit configFile must exist; the default
// location is optional.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(SettingsFile, filepath.Ext(SettingsFile)))
		v.SetConfigType("toml")
		v.AddConfigPath(v.GetString("data_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.source = v.ConfigFileUsed()

	if err := s.Finalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Finalize fills empty fields with defaults, expands ~ and validates
func (s *Settings) Finalize() error {
	d := DefaultSettings()
	if s.ClaudeDir == "" {
		s.ClaudeDir = d.ClaudeDir
	}
	if s.DataDir == "" {
		s.DataDir = d.DataDir
	}
	if s.Access == "" {
		s.Access = d.Access
	}
	if s.Store.Backend == "" {
		s.Store.Backend = d.Store.Backend
	}
	if s.Log.Level == "" {
		s.Log.Level = d.Log.Level
	}
	if s.Log.Format == "" {
		s.Log.Format = d.Log.Format
	}

	s.ClaudeDir = expandHome(s.ClaudeDir)
	s.DataDir = expandHome(s.DataDir)
	s.Access = strings.ToLower(s.Access)
	s.Store.Backend = strings.ToLower(s.Store.Backend)
	s.Log.Level = strings.ToLower(s.Log.Level)
	s.Log.Format = strings.ToLower(s.Log.Format)

	return s.validate()
}

func (s *Settings) validate() error {
	switch s.Access {
	case AccessDirect, AccessScoped:
	default:
		return fmt.Errorf("invalid access: %s (must be direct or scoped)", s.Access)
	}
	switch s.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("invalid store.backend: %s (must be json or sqlite)", s.Store.Backend)
	}
	if err := logging.Level(s.Log.Level).Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := logging.Format(s.Log.Format).Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Source returns the settings file that was loaded, or ""
func (s *Settings) Source() string { return s.source }

// PreferencesPath returns the preference store location for the backend
func (s *Settings) PreferencesPath() string {
	if s.Store.Backend == BackendSQLite {
		return filepath.Join(s.DataDir, "preferences.db")
	}
	return filepath.Join(s.DataDir, "preferences.json")
}

// LockPath returns the lock file serializing settings.json updates
func (s *Settings) LockPath() string {
	return filepath.Join(s.DataDir, "settings.lock")
}

// KeyPath returns the token encryption key location
func (s *Settings) KeyPath() string {
	return filepath.Join(s.DataDir, "token.key")
}

// OpenPreferences opens the configured preference backend
func (s *Settings) OpenPreferences() (storage.Preferences, error) {
	if err := os.MkdirAll(s.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if s.Store.Backend == BackendSQLite {
		return storage.OpenSQLitePreferences(s.PreferencesPath())
	}
	return storage.NewJSONPreferences(s.PreferencesPath()), nil
}

// Encode renders the settings as TOML
func (s Settings) Encode() ([]byte, error) {
	return toml.Marshal(s)
}

// WriteSettings writes s as TOML to path. An existing file is only replaced
// when force is set.
func WriteSettings(path string, s Settings, force bool) error {
	if !force && storage.FileExists(path) {
		return fmt.Errorf("settings file already exists: %s", path)
	}
	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return storage.AtomicWrite(path, data, 0600)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
