package config

import "time"

// Config holds sitepub configuration.
type Config struct {
	CMS       CMSConfig       `mapstructure:"cms" yaml:"cms"`
	WordPress WordPressConfig `mapstructure:"wordpress" yaml:"wordpress"`
	Notion    NotionConfig    `mapstructure:"notion" yaml:"notion"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Publish   PublishConfig   `mapstructure:"publish" yaml:"publish"`
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
}

// CMSConfig selects the publishing backend.
type CMSConfig struct {
	Backend string        `mapstructure:"backend" yaml:"backend"` // "wordpress" or "notion"
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WordPressConfig points at a WordPress REST API.
type WordPressConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"` // e.g. https://example.com/wp-json/wp/v2
	Username    string `mapstructure:"username" yaml:"username"`
	AppPassword string `mapstructure:"app_password" yaml:"app_password"` // supports ${ENV_VAR} syntax
}

// NotionConfig points at a Notion database used as the page store.
type NotionConfig struct {
	Token      string `mapstructure:"token" yaml:"token"` // supports ${ENV_VAR} syntax
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"`
}

// StoreConfig selects where artifacts are kept.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "fs" or "sqlite"
	Path    string `mapstructure:"path" yaml:"path"`       // data dir for fs, database file for sqlite
}

// PublishConfig tunes publish runs.
type PublishConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// SourceConfig tunes raw-input sources.
type SourceConfig struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CMS: CMSConfig{
			Backend: BackendWordPress,
			Timeout: 30 * time.Second,
		},
		WordPress: WordPressConfig{
			AppPassword: "${WP_APP_PASSWORD}",
		},
		Notion: NotionConfig{
			Token: "${NOTION_TOKEN}",
		},
		Store: StoreConfig{
			Backend: StoreFS,
			Path:    "./data",
		},
		Publish: PublishConfig{
			Concurrency: 1,
		},
		Source: SourceConfig{
			CommandTimeout: 5 * time.Minute,
			HTTPTimeout:    60 * time.Second,
		},
	}
}
