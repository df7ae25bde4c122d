// Package processor provides the rendering engine configuration.
package processor

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/abedge/internal/sanitize"
)

// Backend names.
const (
	BackendTree  = "tree"
	BackendRegex = "regex"
)

// ErrInvalidBackend is returned for an unknown backend name.
var ErrInvalidBackend = errors.New("invalid backend")

// Config represents rendering engine settings.
type Config struct {
	// Backend is the primary change backend (tree or regex)
	Backend string `mapstructure:"backend" yaml:"backend"`
	// EnableEmbeddedTags resolves Treatment markup before applying changes
	EnableEmbeddedTags bool `mapstructure:"enable_embedded_tags" yaml:"enable_embedded_tags"`
	// MinifyOutput minifies the rendered HTML
	MinifyOutput bool `mapstructure:"minify_output" yaml:"minify_output"`
	// SanitizerPolicy is denylist or ugc
	SanitizerPolicy string `mapstructure:"sanitizer_policy" yaml:"sanitizer_policy"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendTree, BackendRegex:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}

	if _, err := sanitize.ParsePolicy(c.SanitizerPolicy); err != nil {
		return err
	}

	return nil
}

// Policy returns the parsed sanitizer policy.
func (c *Config) Policy() sanitize.Policy {
	p, err := sanitize.ParsePolicy(c.SanitizerPolicy)
	if err != nil {
		return sanitize.PolicyDenylist
	}
	return p
}

// New creates a new processor configuration with the given options.
func New(opts ...Option) *Config {
	cfg := &Config{
		Backend:            BackendTree,
		EnableEmbeddedTags: true,
		MinifyOutput:       false,
		SanitizerPolicy:    string(sanitize.PolicyDenylist),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option is a function that configures a processor configuration.
type Option func(*Config)

// WithBackend sets the primary backend.
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddedTags enables or disables Treatment tag resolution.
func WithEmbeddedTags(enabled bool) Option {
	return func(c *Config) {
		c.EnableEmbeddedTags = enabled
	}
}

// WithMinifyOutput enables or disables output minification.
func WithMinifyOutput(enabled bool) Option {
	return func(c *Config) {
		c.MinifyOutput = enabled
	}
}

// WithSanitizerPolicy sets the sanitizer policy name.
func WithSanitizerPolicy(policy string) Option {
	return func(c *Config) {
		c.SanitizerPolicy = policy
	}
}
