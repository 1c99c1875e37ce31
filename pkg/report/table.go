// Package report renders experiment summaries as tables and datasets as
// line plots.
package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Hephaest/time-series-shapelet/pkg/experiment"
	"github.com/Hephaest/time-series-shapelet/pkg/store"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode accepts "ascii" or "markdown".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("report: unknown table format %q", s)
}

// Table is built once and rendered in the Mode set at creation.
type Table struct {
	writer table.Writer
	mode   Mode
}

func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	// keep headers as written; the default styles upper-case them
	w.Style().Format.Header = text.FormatDefault
	w.Style().Format.Footer = text.FormatDefault
	return &Table{writer: w, mode: m}
}

func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Row appends a data row. Values are rendered with fmt.Sprint.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

func (t *Table) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(cols ...int) {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	t.writer.SetColumnConfigs(cfgs)
}

func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

// SummaryTable lists the mean accuracy per classifier and dataset.
func SummaryTable(rows []store.SummaryRow, m Mode) *Table {
	t := NewTable(m)
	t.Header("Classifier", "Dataset", "Folds", "Failed", "Mean accuracy")
	for _, r := range rows {
		t.Row(r.Classifier, r.Dataset, r.Folds, r.Failed, fmt.Sprintf("%.4f", r.MeanAccuracy))
	}
	t.AlignRight(3, 4, 5)
	return t
}

// FailureTable lists the failed outcomes with their full error chain.
func FailureTable(outs []experiment.Outcome, m Mode) *Table {
	t := NewTable(m)
	t.Header("Classifier", "Dataset", "Fold", "Error")
	n := 0
	for _, o := range outs {
		if !o.Failed() {
			continue
		}
		t.Row(o.Spec.Classifier.Name, o.Spec.Dataset, o.Spec.Fold, o.Err.Error())
		n++
	}
	t.Footer("", "", "", fmt.Sprintf("%d failed", n))
	return t
}
