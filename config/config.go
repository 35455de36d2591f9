/*
config.go - Server configuration

PURPOSE:
  Loads the server settings from defaults, an optional config file and
  VENDING_* environment variables, in increasing order of precedence.
  cmd/server applies its command-line flags on top.

KEYS:
  http.addr              listen address (default ":8080")
  http.shutdown_timeout  graceful shutdown budget (default 30s)
  log.level              debug | info | warn | error (default info)
  db.path                SQLite catalog path, ":memory:" allowed
  machine.preset         "default" or a preset JSON file
  lane.buffer            queued mutations per service before callers block

ENVIRONMENT:
  Dots become underscores: VENDING_HTTP_ADDR, VENDING_LOG_LEVEL, ...
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "VENDING"

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Machine MachineConfig `mapstructure:"machine"`
	Lane    LaneConfig    `mapstructure:"lane"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type MachineConfig struct {
	Preset string `mapstructure:"preset"`
}

type LaneConfig struct {
	Buffer int `mapstructure:"buffer" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "vending.db")
	v.SetDefault("machine.preset", "default")
	v.SetDefault("lane.buffer", 64)
}

// Load reads the configuration. An empty path skips the config file; a
// path that does not exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %s", verrs[0].Namespace())
		}
		return err
	}
	return nil
}
