// Package report renders solver outcomes as a table, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/store"
)

// Format represents the output format type
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// Summary is an aggregate over a set of outcomes.
type Summary struct {
	Title    string             `json:"title" yaml:"title"`
	Horizon  int                `json:"horizon" yaml:"horizon"`
	Outcomes []scenario.Outcome `json:"outcomes" yaml:"outcomes"`
	// Label names Total, e.g. "quality level sum".
	Label string `json:"label" yaml:"label"`
	Total int    `json:"total" yaml:"total"`
}

// Writer renders reports in one format.
type Writer struct {
	format Format
	output io.Writer
}

// NewWriter creates a Writer. A nil output means stdout; an unknown format
// falls back to table.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to table", "format", format)
		format = FormatTable
	}
	return &Writer{format: format, output: output}
}

// WriteSummary renders a scenario aggregate.
func (w *Writer) WriteSummary(s Summary) error {
	if w.format != FormatTable {
		return w.encode(s)
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)

	titleColor.Fprintf(w.output, "%s (horizon %d)\n", s.Title, s.Horizon)

	table := tablewriter.NewTable(w.output,
		tablewriter.WithHeader([]string{"Blueprint", "Yield", "Quality", "Expanded", "Peak Frontier", "Duration", "Cached"}),
	)
	rows := make([][]string, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		rows = append(rows, []string{
			strconv.Itoa(o.ID),
			strconv.Itoa(o.Yield),
			strconv.Itoa(scenario.QualityLevel(o)),
			strconv.Itoa(o.Stats.Expanded),
			strconv.Itoa(o.Stats.PeakFrontier),
			o.Stats.Duration.Round(time.Microsecond).String(),
			strconv.FormatBool(o.Cached),
		})
	}
	if err := renderRows(table, rows); err != nil {
		return err
	}

	successColor.Fprintf(w.output, "%s: %d\n", s.Label, s.Total)
	return nil
}

// WritePlan renders one outcome with its build order.
func (w *Writer) WritePlan(o scenario.Outcome) error {
	if w.format != FormatTable {
		return w.encode(o)
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Fprintf(w.output, "Blueprint %d: %d geodes in %d minutes\n", o.ID, o.Yield, o.Horizon)
	if o.Blueprint != nil {
		infoColor.Fprintln(w.output, o.Blueprint.String())
	}

	table := tablewriter.NewTable(w.output,
		tablewriter.WithHeader([]string{"#", "Minute", "Build", "Cost"}),
	)
	rows := make([][]string, 0, len(o.Plan))
	for i, b := range o.Plan {
		cost := ""
		if o.Blueprint != nil {
			cost = o.Blueprint.Cost(b.Producer).String()
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(b.Minute), b.Name, cost})
	}
	if err := renderRows(table, rows); err != nil {
		return err
	}

	infoColor.Fprintf(w.output, "expanded %d states, pruned %d, peak frontier %d, %s\n",
		o.Stats.Expanded, o.Stats.Pruned, o.Stats.PeakFrontier, o.Stats.Duration.Round(time.Microsecond))
	return nil
}

// WriteRuns renders stored runs, newest first.
func (w *Writer) WriteRuns(runs []store.Run) error {
	if w.format != FormatTable {
		return w.encode(runs)
	}

	table := tablewriter.NewTable(w.output,
		tablewriter.WithHeader([]string{"Run", "Created", "Costs", "Horizon", "Settings", "Yield"}),
	)
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Fingerprint,
			strconv.Itoa(r.Horizon),
			r.Settings,
			strconv.Itoa(r.Yield),
		})
	}
	return renderRows(table, rows)
}

// rowTable is the part of *tablewriter.Table the writers use.
type rowTable interface {
	Append(rows ...interface{}) error
	Render() error
}

func renderRows(table rowTable, rows [][]string) error {
	for i, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row %d: %w", i+1, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func (w *Writer) encode(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", w.format)
	}
	return nil
}
