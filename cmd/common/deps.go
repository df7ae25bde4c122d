// Package common holds the dependency wiring shared by the abedge commands.
package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/jonesrussell/abedge/internal/config"
	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
	"github.com/jonesrussell/abedge/internal/processor"
)

var (
	// errLoggerRequired is returned when CommandDeps.Logger is nil
	errLoggerRequired = errors.New("logger is required")
	// errConfigRequired is returned when CommandDeps.Config is nil
	errConfigRequired = errors.New("config is required")
)

// CommandDeps holds common dependencies for commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// NewCommandDeps loads the configuration held by the global viper instance and
// creates the logger it describes.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	deps := &CommandDeps{
		Logger: log.WithComponent(cfg.App.Name),
		Config: cfg,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate deps: %w", validateErr)
	}
	return deps, nil
}

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return errLoggerRequired
	}
	if d.Config == nil {
		return errConfigRequired
	}
	return nil
}

// NewProcessor builds the HTML processor from the loaded configuration.
// A nil reg disables metrics.
func (d *CommandDeps) NewProcessor(reg prometheus.Registerer) (*processor.Processor, error) {
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.NewMetrics(reg)
	}

	proc, err := processor.New(processor.Params{
		Config:  d.Config.Processor,
		Logger:  d.Logger,
		Metrics: m,
	})
	if err != nil {
		return nil, fmt.Errorf("create processor: %w", err)
	}
	return proc, nil
}

// ReadInput reads path, or stdin when path is "-".
func ReadInput(path string) (string, error) {
	if strings.TrimSpace(path) == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
