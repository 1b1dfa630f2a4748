package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BackendType identifies where the list is persisted
type BackendType string

const (
	BackendTypeLocal BackendType = "local"
	BackendTypeREST  BackendType = "rest"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Backend BackendConfig `mapstructure:"backend"`
	Sync    SyncConfig    `mapstructure:"sync"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds catalog service configuration
type CatalogConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	MinInterval time.Duration `mapstructure:"min_interval"` // Spacing between request starts
	RetryDelay  time.Duration `mapstructure:"retry_delay"`  // Wait before the single retry after a 429
	Timeout     time.Duration `mapstructure:"timeout"`
	PageLimit   int           `mapstructure:"page_limit"`
	SFW         bool          `mapstructure:"sfw"`
}

// BackendConfig holds list persistence configuration
type BackendConfig struct {
	Type    BackendType   `mapstructure:"type"`  // "local" or "rest"
	Path    string        `mapstructure:"path"`  // local only
	URL     string        `mapstructure:"url"`   // rest only
	Token   string        `mapstructure:"token"` // rest only
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds mutation coordinator configuration
type SyncConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RefreshOnCommit bool          `mapstructure:"refresh_on_commit"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme       string   `mapstructure:"theme"`
	Browser     string   `mapstructure:"browser"`      // Command for opening title pages, empty for system default
	BrowserArgs []string `mapstructure:"browser_args"` // Arguments placed before the URL
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:     "https://api.jikan.moe/v4",
			MinInterval: 400 * time.Millisecond,
			RetryDelay:  1500 * time.Millisecond,
			Timeout:     15 * time.Second,
			PageLimit:   24,
			SFW:         true,
		},
		Backend: BackendConfig{
			Type:    BackendTypeLocal,
			Path:    defaultDataPath(),
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			RequestTimeout:  15 * time.Second,
			RefreshOnCommit: true,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kanshi", "kanshi.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "kanshi", "kanshi.log")
	}
}

// defaultDataPath returns the default local database path for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "kanshi", "list.db")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "kanshi", "list.db")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kanshi")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "kanshi")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), defaultConfigPath())
}

func loadConfig(v *viper.Viper, configDir string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variable overrides, e.g. KANSHI_BACKEND_TYPE
	v.SetEnvPrefix("KANSHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindDefaults registers every key so env overrides apply without a config file
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.base_url", cfg.Catalog.BaseURL)
	v.SetDefault("catalog.min_interval", cfg.Catalog.MinInterval)
	v.SetDefault("catalog.retry_delay", cfg.Catalog.RetryDelay)
	v.SetDefault("catalog.timeout", cfg.Catalog.Timeout)
	v.SetDefault("catalog.page_limit", cfg.Catalog.PageLimit)
	v.SetDefault("catalog.sfw", cfg.Catalog.SFW)

	v.SetDefault("backend.type", cfg.Backend.Type)
	v.SetDefault("backend.path", cfg.Backend.Path)
	v.SetDefault("backend.url", cfg.Backend.URL)
	v.SetDefault("backend.token", cfg.Backend.Token)
	v.SetDefault("backend.timeout", cfg.Backend.Timeout)

	v.SetDefault("sync.request_timeout", cfg.Sync.RequestTimeout)
	v.SetDefault("sync.refresh_on_commit", cfg.Sync.RefreshOnCommit)

	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.browser", cfg.UI.Browser)
	v.SetDefault("ui.browser_args", cfg.UI.BrowserArgs)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case BackendTypeLocal:
		if c.Backend.Path == "" {
			return fmt.Errorf("backend.path is required for the local backend")
		}
	case BackendTypeREST:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required for the rest backend")
		}
	default:
		return fmt.Errorf("unknown backend type %q", c.Backend.Type)
	}
	if c.Catalog.MinInterval <= 0 {
		return fmt.Errorf("catalog.min_interval must be positive, got %s", c.Catalog.MinInterval)
	}
	if c.Catalog.RetryDelay <= 0 {
		return fmt.Errorf("catalog.retry_delay must be positive, got %s", c.Catalog.RetryDelay)
	}
	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), cfg, defaultConfigPath())
}

func saveConfig(v *viper.Viper, cfg *Config, configDir string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("catalog.base_url", cfg.Catalog.BaseURL)
	v.Set("catalog.min_interval", cfg.Catalog.MinInterval.String())
	v.Set("catalog.retry_delay", cfg.Catalog.RetryDelay.String())
	v.Set("catalog.timeout", cfg.Catalog.Timeout.String())
	v.Set("catalog.page_limit", cfg.Catalog.PageLimit)
	v.Set("catalog.sfw", cfg.Catalog.SFW)

	v.Set("backend.type", cfg.Backend.Type)
	v.Set("backend.path", cfg.Backend.Path)
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.token", cfg.Backend.Token)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())

	v.Set("sync.request_timeout", cfg.Sync.RequestTimeout.String())
	v.Set("sync.refresh_on_commit", cfg.Sync.RefreshOnCommit)

	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.browser", cfg.UI.Browser)
	v.Set("ui.browser_args", cfg.UI.BrowserArgs)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configDir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the directory holding config.yaml
func ConfigPath() string {
	return defaultConfigPath()
}
