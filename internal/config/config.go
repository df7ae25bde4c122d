// Package config loads abedge configuration. Environment variables (ABEDGE_*)
// override the YAML file, which overrides defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	processorconfig "github.com/jonesrussell/abedge/internal/config/processor"
	"github.com/jonesrussell/abedge/internal/config/server"
	"github.com/jonesrussell/abedge/internal/logger"
)

// EnvPrefix prefixes every environment variable, e.g. ABEDGE_SERVER_ADDRESS.
const EnvPrefix = "ABEDGE"

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	ErrInvalidEnvironment = errors.New("invalid environment")
	ErrNameRequired       = errors.New("application name must be specified")
)

// AppConfig represents application-specific configuration settings.
type AppConfig struct {
	// Name is the name of the application
	Name string `mapstructure:"name" yaml:"name"`
	// Environment is the application environment (development, staging, production)
	Environment string `mapstructure:"environment" yaml:"environment"`
	// Debug indicates whether debug mode is enabled
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Validate checks if the configuration is valid.
func (c *AppConfig) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEnvironment, c.Environment)
	}
	if c.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Config represents the application configuration.
type Config struct {
	// App holds application metadata
	App *AppConfig `mapstructure:"app" yaml:"app"`
	// Logger holds logging configuration
	Logger *logger.Config `mapstructure:"logger" yaml:"logger"`
	// Processor holds rendering engine configuration
	Processor *processorconfig.Config `mapstructure:"processor" yaml:"processor"`
	// Server holds HTTP host configuration
	Server *server.Config `mapstructure:"server" yaml:"server"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Processor.Validate(); err != nil {
		return fmt.Errorf("processor: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Configure enables ABEDGE_* environment overrides on v and registers the
// defaults. Each key gets its own default so AutomaticEnv can see it.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "abedge")
	v.SetDefault("app.environment", EnvProduction)
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", string(logger.DefaultLevel))
	v.SetDefault("logger.encoding", logger.DefaultEncoding)
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", logger.DefaultOutputPaths)

	proc := processorconfig.New()
	v.SetDefault("processor.backend", proc.Backend)
	v.SetDefault("processor.enable_embedded_tags", proc.EnableEmbeddedTags)
	v.SetDefault("processor.minify_output", proc.MinifyOutput)
	v.SetDefault("processor.sanitizer_policy", proc.SanitizerPolicy)

	srv := server.NewConfig()
	v.SetDefault("server.address", srv.Address)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.idle_timeout", srv.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", srv.MaxBodyBytes)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	setDefaults(cfg)
	if cfg.App.Debug {
		cfg.Logger.Level = logger.DebugLevel
	}
	if cfg.App.Environment == EnvDevelopment {
		cfg.Logger.Development = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// setDefaults fills sections missing from the source.
func setDefaults(cfg *Config) {
	if cfg.App == nil {
		cfg.App = &AppConfig{Name: "abedge", Environment: EnvProduction}
	}
	if cfg.Logger == nil {
		cfg.Logger = &logger.Config{}
	}
	cfg.Logger.SetDefaults()
	if cfg.Processor == nil {
		cfg.Processor = processorconfig.New()
	}
	if cfg.Server == nil {
		cfg.Server = server.NewConfig()
	}
}
