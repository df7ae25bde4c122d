// Package process implements the process command, which renders an HTML file
// for a set of experiment assignments.
package process

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/abedge/cmd/common"
	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
)

// outputFileMode is the permission of files written with --out.
const outputFileMode = 0o644

var errHTMLRequired = errors.New("--html is required")

// Renderer applies experiments to HTML.
type Renderer interface {
	ProcessHTML(markup string, experiments []domain.ExperimentData) string
}

// Params holds the process operation parameters
type Params struct {
	Logger   logger.Interface
	Renderer Renderer
	// HTML is the document to render.
	HTML string
	// Experiments are the active assignments.
	Experiments []domain.ExperimentData
	// Out receives the rendered document.
	Out io.Writer
}

// Command returns the process command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Render an HTML file for a set of experiments",
		Long: `Process resolves Treatment markup and applies each experiment's DOM changes to an
HTML file, printing the result.

Examples:
  # Render page.html with the assignments in experiments.yaml
  abedge process --html page.html --experiments experiments.yaml

  # Read HTML from stdin and write the result to a file
  cat page.html | abedge process --html - --experiments experiments.json --out out.html
`,
		RunE: runProcess,
	}

	cmd.Flags().String("html", "", "HTML file to render (- for stdin)")
	cmd.Flags().StringP("experiments", "e", "", "YAML or JSON file of experiment assignments")
	cmd.Flags().StringP("out", "o", "", "write the rendered HTML to this file instead of stdout")

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	htmlPath, _ := cmd.Flags().GetString("html")
	experimentsPath, _ := cmd.Flags().GetString("experiments")
	outPath, _ := cmd.Flags().GetString("out")

	if htmlPath == "" {
		return errHTMLRequired
	}

	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	markup, err := common.ReadInput(htmlPath)
	if err != nil {
		return err
	}

	var experiments []domain.ExperimentData
	if experimentsPath != "" {
		experiments, err = domain.LoadExperiments(experimentsPath)
		if err != nil {
			return err
		}
	}

	proc, err := deps.NewProcessor(nil)
	if err != nil {
		return err
	}

	p := Params{
		Logger:      deps.Logger,
		Renderer:    proc,
		HTML:        markup,
		Experiments: experiments,
		Out:         cmd.OutOrStdout(),
	}
	if outPath == "" {
		return Execute(p)
	}
	return ExecuteToFile(p, outPath)
}

// ExecuteToFile runs Execute with output written to path. The file is closed
// before returning so a failed flush is reported.
func ExecuteToFile(p Params, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	p.Out = f
	if execErr := Execute(p); execErr != nil {
		_ = f.Close()
		return execErr
	}
	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	return nil
}

// Execute validates the experiments, renders the document and writes it to p.Out.
// Experiments that fail validation are reported and still processed; the
// engine skips their malformed changes one by one.
func Execute(p Params) error {
	for _, exp := range p.Experiments {
		if err := domain.ValidateExperiment(exp); err != nil {
			p.Logger.Warn("Experiment failed validation",
				"experiment", exp.Name,
				"error", err.Error(),
			)
		}
	}

	p.Logger.Debug("Rendering document",
		"bytes", len(p.HTML),
		"experiments", len(p.Experiments),
	)

	if _, err := io.WriteString(p.Out, p.Renderer.ProcessHTML(p.HTML, p.Experiments)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
