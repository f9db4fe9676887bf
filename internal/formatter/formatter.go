// package formatter renders playlist tables and aggregates for export (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	"github.com/desertthunder/tunescope/internal/tasks"
)

// Format is an export format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists the supported export formats.
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat resolves a format name; "md" and "txt" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return "csv"
	case Markdown:
		return "md"
	case JSON:
		return "json"
	default:
		return "txt"
	}
}

// Export renders a snapshot in the given format.
func Export(s *tasks.Snapshot, f Format) ([]byte, error) {
	if s == nil || s.Table == nil {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrMissingArgument)
	}

	switch f {
	case CSV:
		return ExportToCSV(s.Table)
	case Markdown:
		return ExportToMarkdown(s)
	case JSON:
		return ExportToJSON(s)
	case Text:
		return ExportToText(s.Table)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

func header() []string {
	return append([]string{"#"}, models.Columns...)
}

func record(r models.Row) []string {
	return append([]string{strconv.Itoa(r.Index)}, r.Cells()...)
}

// ExportToCSV converts a table to CSV with an index column followed by [models.Columns]
func ExportToCSV(t *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range t.Rows {
		if err := writer.Write(record(row)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a snapshot to a Markdown document: the table followed by the correlation matrix
func ExportToMarkdown(s *tasks.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", s.Table.Playlist))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", s.Table.Len()))

	buf.WriteString("## Tracks\n\n")
	writeMarkdownRow(&buf, header())
	writeMarkdownRow(&buf, strings.Split(strings.Repeat("---,", len(header())-1)+"---", ","))
	for _, row := range s.Table.Rows {
		writeMarkdownRow(&buf, record(row))
	}

	if s.Correlation.Size() > 0 {
		buf.WriteString("\n## Correlation\n\n")
		rows := correlationRows(s.Correlation)
		writeMarkdownRow(&buf, rows[0])
		writeMarkdownRow(&buf, strings.Split(strings.Repeat("---,", len(rows[0])-1)+"---", ","))
		for _, r := range rows[1:] {
			writeMarkdownRow(&buf, r)
		}
	}

	return buf.Bytes(), nil
}

func writeMarkdownRow(buf *bytes.Buffer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	buf.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

// ExportToJSON encodes the full snapshot
func ExportToJSON(s *tasks.Snapshot) ([]byte, error) {
	return shared.MarshalJSON(s, true)
}

// ExportToText converts a table to a bordered plain text grid
func ExportToText(t *models.Table) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", t.Playlist))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", t.Len()))

	rows := make([][]string, 0, t.Len())
	for _, row := range t.Rows {
		rows = append(rows, record(row))
	}

	grid := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header()...).
		Rows(rows...)

	buf.WriteString(grid.String())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// correlationRows lays out the lower triangle: a header row, then one row per feature.
//
// Masked cells are blank and undefined coefficients read "n/a".
func correlationRows(m *models.CorrelationMatrix) [][]string {
	n := m.Size()
	rows := make([][]string, 0, n+1)

	head := []string{""}
	for _, f := range m.Features {
		head = append(head, f.Title())
	}
	rows = append(rows, head)

	for i, f := range m.Features {
		row := []string{f.Title()}
		for j := range n {
			row = append(row, CorrelationCell(m, i, j))
		}
		rows = append(rows, row)
	}
	return rows
}

// CorrelationCell formats one coefficient for display.
func CorrelationCell(m *models.CorrelationMatrix, i, j int) string {
	if m.Masked(i, j) {
		return ""
	}
	v := m.At(i, j)
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// CorrelationText renders the lower triangle of m as a bordered grid.
func CorrelationText(m *models.CorrelationMatrix) string {
	if m.Size() == 0 {
		return ""
	}
	rows := correlationRows(m)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(rows[0]...).
		Rows(rows[1:]...).
		String()
}

// HistogramText renders h as horizontal bars scaled to width characters.
func HistogramText(h *models.Histogram, width int) string {
	if h == nil {
		return ""
	}
	if len(h.Bins) == 0 {
		return h.Title + "\n(no data)\n"
	}
	if width < 1 {
		width = 1
	}

	var b strings.Builder
	b.WriteString(h.Title + "\n")

	peak := h.MaxCount()
	for _, bin := range h.Bins {
		n := 0
		if peak > 0 {
			n = int(math.Round(float64(bin.Count) / float64(peak) * float64(width)))
		}
		if bin.Count > 0 && n == 0 {
			n = 1
		}
		b.WriteString(fmt.Sprintf("%9s - %-9s %s %d\n",
			models.FormatValue(h.Feature, bin.Min),
			models.FormatValue(h.Feature, bin.Max),
			strings.Repeat("█", n)+strings.Repeat(" ", width-n),
			bin.Count,
		))
	}
	return b.String()
}

// DefaultFilename is {playlist}_table.{ext}, with the playlist name lower-cased and spaces replaced by underscores.
func DefaultFilename(playlist string, f Format) string {
	slug := strings.ToLower(strings.Join(strings.Fields(playlist), "_"))
	slug = strings.Map(func(r rune) rune {
		if r == os.PathSeparator || r == '/' {
			return '_'
		}
		return r
	}, slug)
	if slug == "" {
		slug = "playlist"
	}
	return fmt.Sprintf("%s_table.%s", slug, f.Extension())
}

// WriteExport renders s and writes it to path, defaulting to [DefaultFilename].
//
// Parent directories are created as needed.
func WriteExport(s *tasks.Snapshot, f Format, path string) (string, error) {
	data, err := Export(s, f)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = DefaultFilename(s.Table.Playlist, f)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
