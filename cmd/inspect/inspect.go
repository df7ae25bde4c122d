// Package inspect implements the inspect command, which lists the Treatment
// blocks of an HTML file and the variant each would resolve to.
package inspect

import (
	"errors"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/abedge/cmd/common"
	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/treatment"
)

const (
	// statusOK marks a tag that passes validation.
	statusOK = "ok"
	// noSelection is shown when no variant would be rendered.
	noSelection = "-"
	// maxErrorWidth caps the status column.
	maxErrorWidth = 60
)

var errHTMLRequired = errors.New("--html is required")

// Row is one inspected Treatment block.
type Row struct {
	Experiment    string
	TriggerOnView bool
	Variants      []string
	Selected      string
	Step          treatment.Step
	Status        string
}

// Command returns the inspect command for use in the root command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List Treatment blocks in an HTML file",
		Long: `Inspect parses the Treatment markup of an HTML file and prints each block with its
variants and validation status. With --experiments the selected variant is shown too.

Examples:
  abedge inspect --html page.html
  abedge inspect --html page.html --experiments experiments.yaml
`,
		RunE: runInspect,
	}

	cmd.Flags().String("html", "", "HTML file to inspect (- for stdin)")
	cmd.Flags().StringP("experiments", "e", "", "YAML or JSON file of experiment assignments")

	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	htmlPath, _ := cmd.Flags().GetString("html")
	experimentsPath, _ := cmd.Flags().GetString("experiments")

	if htmlPath == "" {
		return errHTMLRequired
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

	rows := Inspect(markup, treatment.AssignmentsFrom(experiments))
	Render(cmd.OutOrStdout(), rows)
	return nil
}

// Inspect parses markup and describes every Treatment block in document order.
func Inspect(markup string, assignments treatment.Assignments) []Row {
	tags := treatment.Parse(markup)
	rows := make([]Row, 0, len(tags))

	for _, tag := range tags {
		row := Row{
			Experiment:    tag.Name,
			TriggerOnView: tag.TriggerOnView,
			Variants:      make([]string, 0, len(tag.Variants)),
			Selected:      noSelection,
			Status:        statusOK,
		}
		for _, v := range tag.Variants {
			row.Variants = append(row.Variants, v.Variant.String())
		}

		if err := treatment.ValidateTag(tag); err != nil {
			row.Status = strings.ReplaceAll(err.Error(), "\n", "; ")
			rows = append(rows, row)
			continue
		}

		a := assignments[tag.Name]
		v, step := treatment.SelectVariant(tag, a.Treatment, a.Mapping)
		row.Step = step
		if v != nil {
			row.Selected = v.Variant.String()
		}
		rows = append(rows, row)
	}

	return rows
}

// configureTable sets up the table writer with the inspect columns.
func configureTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	const statusColumnNumber = 7
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: statusColumnNumber, WidthMax: maxErrorWidth},
	})

	t.AppendHeader(table.Row{"#", "Experiment", "Trigger On View", "Variants", "Selected", "Step", "Status"})
	return t
}

// Render writes rows as a table.
func Render(w io.Writer, rows []Row) {
	t := configureTable(w)

	for i, row := range rows {
		step := string(row.Step)
		if step == "" {
			step = noSelection
		}
		t.AppendRow(table.Row{
			i + 1,
			row.Experiment,
			row.TriggerOnView,
			strings.Join(row.Variants, ", "),
			row.Selected,
			step,
			row.Status,
		})
	}

	t.AppendFooter(table.Row{"Total", len(rows)})
	t.Render()
}
