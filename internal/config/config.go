// Package config loads service configuration with viper: built-in defaults,
// then an optional YAML file, then SFL_-prefixed environment variables, each
// layer overriding the previous one.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures everything the server binary needs at startup.
type Config struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	DataDir        string   `mapstructure:"data_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// PersistSession keeps the last provider/model selection on disk so it
	// survives a server restart inside the TTL window.
	PersistSession bool `mapstructure:"persist_session"`

	// ProviderBaseURLs overrides upstream endpoints per provider, mainly for
	// self-hosted gateways and test rigs.
	ProviderBaseURLs map[string]string `mapstructure:"provider_base_urls"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8688)
	v.SetDefault("debug", false)
	v.SetDefault("data_dir", "~/.sfl-studio")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("persist_session", true)
}

// Load reads configuration. configFile may be empty, in which case only
// defaults and environment variables apply; a named file that is missing is
// an error, because the operator asked for it.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SFL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that would otherwise fail deep inside startup.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
