package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// StatusInfo is what `coderag status` shows.
type StatusInfo struct {
	ProjectDir     string      `json:"project_dir"`
	CacheDir       string      `json:"cache_dir"`
	Indexed        bool        `json:"indexed"`
	Files          int         `json:"files"`
	Chunks         int         `json:"chunks"`
	Vectors        int         `json:"vectors"`
	LastIndexed    time.Time   `json:"last_indexed,omitzero"`
	CacheSize      int64       `json:"cache_size"`
	LexicalBackend string      `json:"lexical_backend"`
	VectorBackend  string      `json:"vector_backend"`
	EmbeddingModel string      `json:"embedding_model,omitempty"`
	EmbedderState  string      `json:"embedder_state"` // "ready", "fallback", "disabled"
	Queries        *QueryStats `json:"queries,omitempty"`
}

// QueryStats summarizes recorded searches.
type QueryStats struct {
	Total       int64    `json:"total"`
	ZeroResults int64    `json:"zero_results"`
	Degraded    int64    `json:"degraded"`
	TopTerms    []string `json:"top_terms,omitempty"`
}

// StatusRenderer prints StatusInfo.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor), now: time.Now}
}

// Render prints info as aligned text.
func (r *StatusRenderer) Render(info StatusInfo) error {
	w := &errWriter{w: r.out}

	w.printf("%s\n\n", r.styles.Header.Render("Index status: "+info.ProjectDir))
	if !info.Indexed {
		w.printf("  %s\n", r.styles.Warning.Render("not indexed, run 'coderag index'"))
		return w.err
	}

	w.printf("  Files:        %d\n", info.Files)
	w.printf("  Chunks:       %d\n", info.Chunks)
	w.printf("  Vectors:      %d\n", info.Vectors)
	if !info.LastIndexed.IsZero() {
		w.printf("  Last indexed: %s\n", relativeTime(info.LastIndexed, r.now()))
	}
	w.printf("\n  Cache:        %s (%s)\n", info.CacheDir, FormatBytes(info.CacheSize))
	w.printf("  Lexical:      %s\n", info.LexicalBackend)
	w.printf("  Vectors:      %s\n", info.VectorBackend)
	w.printf("  Embeddings:   %s", r.state(info.EmbedderState))
	if info.EmbeddingModel != "" {
		w.printf(" (%s)", info.EmbeddingModel)
	}
	w.printf("\n")

	if q := info.Queries; q != nil && q.Total > 0 {
		w.printf("\n  Searches:     %d (%d empty, %d degraded)\n", q.Total, q.ZeroResults, q.Degraded)
		if len(q.TopTerms) > 0 {
			w.printf("  Top terms:    %s\n", strings.Join(q.TopTerms, ", "))
		}
	}
	return w.err
}

// RenderJSON prints info as indented JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func (r *StatusRenderer) state(s string) string {
	switch s {
	case "ready":
		return r.styles.Success.Render(s)
	case "fallback":
		return r.styles.Warning.Render(s)
	default:
		return r.styles.Dim.Render(s)
	}
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// relativeTime renders t relative to now, falling back to a date after
// a week.
func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}
