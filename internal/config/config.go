// Package config loads server settings from horae.yaml and HORAE_* env
// vars, env taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server-side configuration. The oracle's own settings live in
// the llm package and load separately.
type Config struct {
	DBPath   string `mapstructure:"db_path"`
	HTTPAddr string `mapstructure:"http_addr"`

	TickInterval time.Duration `mapstructure:"tick_interval"`

	Push PushConfig `mapstructure:"push"`
}

// PushConfig carries the Web Push VAPID identity.
type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
}

// Load reads horae.yaml from the working directory or ~/.horae, then applies
// HORAE_* environment overrides. A missing file is fine; defaults cover
// everything.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("horae")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".horae"))
	}

	v.SetEnvPrefix("HORAE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("tick_interval", time.Minute)
	v.SetDefault("push.subscriber", "mailto:admin@localhost")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	return &cfg, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "horae.db"
	}
	return filepath.Join(home, ".horae", "horae.db")
}
