// Package config aggregates client configuration from defaults, an
// optional config file, a .env file and COINRUSH_* environment
// variables, in that order of precedence (later wins).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved client configuration.
type Config struct {
	App struct {
		// Env selects the logging profile: "development" or "production".
		Env string
	}
	API struct {
		// URL is the base URL all request paths are resolved against.
		URL     string
		Timeout time.Duration
	}
	Session struct {
		// Persistent selects the encrypted on-disk store over the
		// in-memory one.
		Persistent bool
		// DatabasePath is the sqlite file of the persistent store.
		DatabasePath string
		// KeyringService names the OS keyring entry holding the store
		// secret.
		KeyringService string
		// KeyringDir is the fallback file-backend directory used when no
		// OS keyring is available.
		KeyringDir string
	}
}

// Load resolves the configuration. A missing config file is not an
// error; a present but unparsable one is.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("COINRUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := defaultDataDir()
	v.SetDefault("app.env", "production")
	v.SetDefault("api.url", "http://localhost:5001/api")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("session.persistent", true)
	v.SetDefault("session.databasepath", filepath.Join(dataDir, "session.db"))
	v.SetDefault("session.keyringservice", "coinrush")
	v.SetDefault("session.keyringdir", filepath.Join(dataDir, "keyring"))

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("api timeout must be positive, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}

// defaultDataDir places client state under the user config dir, falling
// back to the working directory when the platform reports none.
func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".coinrush"
	}
	return filepath.Join(base, "coinrush")
}

// loadDotEnv imports KEY=VALUE pairs from an optional .env file without
// overriding variables already present in the environment.
func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
