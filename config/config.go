// Package config loads runtime settings from a config file and the
// environment, with sane defaults for a single-box deployment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type SiteConfig struct {
	Title       string `mapstructure:"title"`
	URL         string `mapstructure:"url"`
	Description string `mapstructure:"description"`
	PageSize    int    `mapstructure:"page_size"`
	SlugPattern string `mapstructure:"slug_pattern"`
}

type HTTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level     string        `mapstructure:"level"`
	SlowQuery time.Duration `mapstructure:"slow_query"`
}

// Load reads the named config file, if any, layered under COWBLOG_*
// environment variables. A missing file is fine: defaults plus the
// environment has to be enough to boot.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("site.title", "A Blog")
	v.SetDefault("site.url", "http://localhost:8080")
	v.SetDefault("site.description", "")
	v.SetDefault("site.page_size", 10)
	v.SetDefault("site.slug_pattern", "[a-z0-9]")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.session_ttl", 24*time.Hour)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "cow-blog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.slow_query", 200*time.Millisecond)

	v.SetEnvPrefix("COWBLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cow-blog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cow-blog")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
