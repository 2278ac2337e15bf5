// Package config resolves runtime configuration from flags, environment
// variables, and an optional YAML config file, in that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/claudepro-directory/contentsync/internal/content"
)

// Config is the resolved runtime configuration.
type Config struct {
	// ContentDir is the root of the content tree.
	ContentDir string `mapstructure:"content_dir"`

	// ChangelogPath is the Markdown changelog location.
	ChangelogPath string `mapstructure:"changelog_path"`

	// Driver selects the store backend: "pgx" or "sqlite3".
	Driver string `mapstructure:"driver"`

	// DatabaseURL is the store DSN. May be empty if SecretCommand is set.
	DatabaseURL string `mapstructure:"database_url"`

	// SecretCommand is an optional shell command whose trimmed stdout
	// supplies DatabaseURL when the environment doesn't.
	SecretCommand string `mapstructure:"secret_command"`

	// FieldTable optionally overrides the per-category metadata field
	// extraction table.
	FieldTable string `mapstructure:"field_table"`

	BatchSize int `mapstructure:"batch_size"`
	Workers   int `mapstructure:"workers"`
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and environment variables apply. A named config file that does
// not exist is an error; the default search path is optional.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("content_dir", "content")
	v.SetDefault("changelog_path", "CHANGELOG.md")
	v.SetDefault("driver", "pgx")
	v.SetDefault("batch_size", 50)
	v.SetDefault("workers", 4)

	// Spec'd environment surface, unprefixed on purpose: these names are
	// shared with the CI workflows that invoke the sync.
	for key, env := range map[string]string{
		"database_url":   "DATABASE_URL",
		"content_dir":    "CONTENT_DIR",
		"changelog_path": "CHANGELOG_PATH",
		"driver":         "CSYNC_DRIVER",
		"secret_command": "CSYNC_SECRET_COMMAND",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(".csync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ResolveDatabaseURL returns the store DSN through an explicit fallback
// chain: configured value (env/file/flag), then the secret command, then
// failure. The sqlite3 driver keeps whatever file path was configured.
func (c *Config) ResolveDatabaseURL(ctx context.Context) (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}

	if c.SecretCommand != "" {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		parts := strings.Fields(c.SecretCommand)
		if len(parts) == 0 {
			return "", fmt.Errorf("secret_command is blank")
		}
		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		out, err := cmd.Output()
		if err != nil {
			return "", fmt.Errorf("secret command failed: %w", err)
		}
		url := strings.TrimSpace(string(out))
		if url == "" {
			return "", fmt.Errorf("secret command produced no output")
		}
		return url, nil
	}

	return "", fmt.Errorf("DATABASE_URL is not set and no secret_command is configured")
}

// ChangedFiles returns the CHANGED_FILES path list from the environment.
func ChangedFiles() []string {
	return content.SplitPathList(os.Getenv("CHANGED_FILES"))
}

// DeletedFiles returns the DELETED_FILES path list from the environment.
func DeletedFiles() []string {
	return content.SplitPathList(os.Getenv("DELETED_FILES"))
}
