// Package config loads host configuration from defaults, an optional YAML
// file and HANDOFF_* environment variables.
package config

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jdavidagudelo/handoff/application/schema"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. HANDOFF_GUEST_BACKEND.
const EnvPrefix = "HANDOFF"

// Backend names.
const (
	BackendInProc = "inproc"
	BackendWazero = "wazero"
)

// Config is the host configuration.
type Config struct {
	LogLevel string      `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	Guest    GuestConfig `mapstructure:"guest" json:"guest"`
}

// GuestConfig selects and sizes the guest.
type GuestConfig struct {
	// Backend is inproc or wazero.
	Backend string `mapstructure:"backend" json:"backend" validate:"oneof=inproc wazero"`
	// Path to the wasm module, required by the wazero backend.
	Path string `mapstructure:"path" json:"path,omitempty" validate:"required_if=Backend wazero"`
	// Size of the in-process arena in 64 KiB pages.
	ArenaPages uint32 `mapstructure:"arena_pages" json:"arena_pages" validate:"min=1,max=65536"`
	// Cap on wasm linear memory in 64 KiB pages; 0 leaves it to the module.
	// A Go wasip1 guest declares about 43 pages before it allocates anything.
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages" json:"memory_limit_pages" validate:"max=65536"`
	// Cap on live owned bytes in the in-process guest; 0 keeps the default.
	MaxAllocationBytes int `mapstructure:"max_allocation_bytes" json:"max_allocation_bytes" validate:"min=0"`
	// Cap on a payload passed to a host import.
	PayloadLimit uint32 `mapstructure:"payload_limit" json:"payload_limit" validate:"min=1"`
}

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Guest: GuestConfig{
			Backend:      BackendInProc,
			ArenaPages:   16,
			PayloadLimit: 1024 * 1024,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("guest.backend", d.Guest.Backend)
	v.SetDefault("guest.path", d.Guest.Path)
	v.SetDefault("guest.arena_pages", d.Guest.ArenaPages)
	v.SetDefault("guest.memory_limit_pages", d.Guest.MemoryLimitPages)
	v.SetDefault("guest.max_allocation_bytes", d.Guest.MaxAllocationBytes)
	v.SetDefault("guest.payload_limit", d.Guest.PayloadLimit)
}

// Load reads configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
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
		return nil, &errors.ConfigError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint and reports the first failure.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		return &errors.ConfigError{Field: verrs[0].Namespace(), Err: err}
	}
	return &errors.ConfigError{Err: err}
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	return schema.GenerateSchema(&Config{})
}

// Level returns the zap level for LogLevel.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds the host logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.Level())
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
