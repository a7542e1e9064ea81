// Package output formats CLI messages and search results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/coderag/internal/outcome"
	"github.com/Aman-CERP/coderag/internal/search"
	"github.com/Aman-CERP/coderag/internal/ui"
)

// DefaultPreviewLines is how many content lines a result shows.
const DefaultPreviewLines = 6

// Writer provides formatted output for the CLI.
type Writer struct {
	out    io.Writer
	styles ui.Styles
}

// New creates a Writer that colors output only on a terminal without
// NO_COLOR set.
func New(out io.Writer) *Writer {
	return NewWithColor(out, ColorEnabled(out))
}

// ColorEnabled reports whether out is a terminal and NO_COLOR is unset.
func ColorEnabled(out io.Writer) bool {
	return ui.IsTTY(out) && !ui.DetectNoColor()
}

// NewWithColor creates a Writer with color forced on or off.
func NewWithColor(out io.Writer, color bool) *Writer {
	return &Writer{out: out, styles: ui.GetStyles(!color)}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
	}
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("⚠"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Results prints ranked search results, each with a short content preview
// numbered by source line. previewLines <= 0 uses DefaultPreviewLines.
func (w *Writer) Results(query string, results []search.Result, out outcome.Outcome, previewLines int) {
	if previewLines <= 0 {
		previewLines = DefaultPreviewLines
	}
	if out.IsDegraded() {
		w.Warningf("partial results (%s)", out.Reason)
	}
	if len(results) == 0 {
		w.Status("", fmt.Sprintf("No results for %q", query))
		return
	}

	for i, r := range results {
		header := fmt.Sprintf("%s:%d-%d", r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine)
		symbol := string(r.Chunk.Type)
		if r.Chunk.Name != "" {
			symbol += " " + r.Chunk.Name
		}
		_, _ = fmt.Fprintf(w.out, "%s %s  %s  %s\n",
			w.styles.Dim.Render(fmt.Sprintf("%2d.", i+1)),
			w.styles.Header.Render(header),
			w.styles.Label.Render(symbol),
			w.styles.Dim.Render(fmt.Sprintf("score %.4f (lexical %.2f, vector %.2f)", r.Score, r.LexicalScore, r.VectorScore)))
		w.preview(r, previewLines)
		if i < len(results)-1 {
			w.Newline()
		}
	}
}

func (w *Writer) preview(r search.Result, limit int) {
	lines := strings.Split(strings.TrimRight(r.Chunk.Content, "\n"), "\n")
	shown := min(limit, len(lines))
	width := len(fmt.Sprint(r.Chunk.StartLine + shown - 1))
	for i := 0; i < shown; i++ {
		num := fmt.Sprintf("%*d", width, r.Chunk.StartLine+i)
		_, _ = fmt.Fprintf(w.out, "    %s  %s\n", w.styles.Dim.Render(num), lines[i])
	}
	if rest := len(lines) - shown; rest > 0 {
		_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.Dim.Render(fmt.Sprintf("… %d more lines", rest)))
	}
}

// SearchReport is the JSON shape of `coderag search --json`.
type SearchReport struct {
	Query   string          `json:"query"`
	Status  string          `json:"status"`
	Reason  string          `json:"reason,omitempty"`
	Results []search.Result `json:"results"`
}

// NewSearchReport builds a report. A nil result slice encodes as [].
func NewSearchReport(query string, results []search.Result, out outcome.Outcome) SearchReport {
	if results == nil {
		results = []search.Result{}
	}
	return SearchReport{
		Query:   query,
		Status:  out.Status.String(),
		Reason:  out.Reason,
		Results: results,
	}
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
