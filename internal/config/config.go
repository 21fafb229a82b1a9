package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds user configuration.
type Config struct {
	Supabase SupabaseConfig
}

// SupabaseConfig holds remote sync settings. SyncInterval is in minutes.
type SupabaseConfig struct {
	URL          string
	APIKey       string `mapstructure:"api_key"`
	AutoSync     bool   `mapstructure:"auto_sync"`
	SyncInterval int    `mapstructure:"sync_interval"`
}

// Dir returns the directory holding all ccpet state (config, pet state,
// graveyard, sync lock and log). CCPET_DIR overrides it, mainly for tests.
func Dir() string {
	if dir := os.Getenv("CCPET_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccpet"
	}
	return filepath.Join(home, ".ccpet")
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.api_key", "")
	v.SetDefault("supabase.auto_sync", false)
	v.SetDefault("supabase.sync_interval", 1440)

	v.SetConfigType("toml")
	v.SetConfigFile(filepath.Join(Dir(), "config.toml"))

	v.SetEnvPrefix("CCPET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Load reads configuration from file and env. Env var overrides use prefix
// CCPET_. A missing config file is not an error; defaults apply.
func Load() (Config, error) {
	v := newViper()

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. The API key is stored in plain text; prefer env vars for secrets.
func Save(cfg Config) error {
	path := filepath.Join(Dir(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("supabase.url", cfg.Supabase.URL)
	v.Set("supabase.api_key", cfg.Supabase.APIKey)
	v.Set("supabase.auto_sync", cfg.Supabase.AutoSync)
	v.Set("supabase.sync_interval", cfg.Supabase.SyncInterval)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
