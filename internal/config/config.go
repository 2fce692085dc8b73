package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendWordPress = "wordpress"
	BackendNotion    = "notion"

	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from defaults, an optional config file and
// SITEPUB_* environment variables, in increasing order of precedence.
// An empty cfgFile searches ./config.yaml and $HOME/.sitepub/config.yaml;
// a missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("SITEPUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sitepub")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.WordPress.AppPassword = ResolveEnvVars(cfg.WordPress.AppPassword)
	cfg.Notion.Token = ResolveEnvVars(cfg.Notion.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Every key needs a default so that AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("cms.backend", d.CMS.Backend)
	v.SetDefault("cms.timeout", d.CMS.Timeout)
	v.SetDefault("wordpress.base_url", d.WordPress.BaseURL)
	v.SetDefault("wordpress.username", d.WordPress.Username)
	v.SetDefault("wordpress.app_password", d.WordPress.AppPassword)
	v.SetDefault("notion.token", d.Notion.Token)
	v.SetDefault("notion.database_id", d.Notion.DatabaseID)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("publish.concurrency", d.Publish.Concurrency)
	v.SetDefault("source.command_timeout", d.Source.CommandTimeout)
	v.SetDefault("source.http_timeout", d.Source.HTTPTimeout)
}

// Validate checks the settings every command depends on. Backend
// credentials are checked only when a CMS is actually needed.
func (c *Config) Validate() error {
	switch c.CMS.Backend {
	case BackendWordPress, BackendNotion:
	default:
		return fmt.Errorf("unknown cms.backend %q (want %s or %s)", c.CMS.Backend, BackendWordPress, BackendNotion)
	}
	switch c.Store.Backend {
	case StoreFS, StoreSQLite:
	default:
		return fmt.Errorf("unknown store.backend %q (want %s or %s)", c.Store.Backend, StoreFS, StoreSQLite)
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Publish.Concurrency < 1 {
		return fmt.Errorf("publish.concurrency must be at least 1, got %d", c.Publish.Concurrency)
	}
	return nil
}

// ValidateCMS checks that the selected backend has its credentials.
func (c *Config) ValidateCMS() error {
	var missing []string
	switch c.CMS.Backend {
	case BackendWordPress:
		if c.WordPress.BaseURL == "" {
			missing = append(missing, "wordpress.base_url")
		}
		if c.WordPress.Username == "" {
			missing = append(missing, "wordpress.username")
		}
		if c.WordPress.AppPassword == "" {
			missing = append(missing, "wordpress.app_password")
		}
	case BackendNotion:
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if c.Notion.DatabaseID == "" {
			missing = append(missing, "notion.database_id")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s backend is not configured: missing %s", c.CMS.Backend, strings.Join(missing, ", "))
	}
	return nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}
