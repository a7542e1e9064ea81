package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/output"
	"github.com/Aman-CERP/coderag/internal/telemetry"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK    int
	json    bool
	preview int
	dir     string
}

func newSearchCmd(o *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Search the indexed codebase with hybrid retrieval.

The BM25 and embedding rankings are each normalized to [0,1] and combined
with the configured weights. When embeddings are unavailable the results
are lexical only and a warning is printed.

Examples:
  coderag search "authentication middleware"
  coderag search parseConfig -k 5
  coderag search "retry with backoff" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, o, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output results as JSON")
	cmd.Flags().IntVar(&opts.preview, "preview", output.DefaultPreviewLines, "Content lines shown per result")
	cmd.Flags().StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: detected from the working directory)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, o *rootOptions, query string, opts searchOptions) error {
	if strings.TrimSpace(query) == "" {
		return cerrors.InvalidArgument("query cannot be empty")
	}

	p, err := o.loadProject([]string{opts.dir})
	if err != nil {
		return err
	}
	if err := p.requireIndex(); err != nil {
		return err
	}

	topK := opts.topK
	if topK <= 0 {
		topK = p.cfg.Search.TopK
	}

	ix, err := p.open()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	start := time.Now()
	if _, err := ix.Restore(ctx); err != nil {
		return err
	}
	searchStart := time.Now()
	results, out, err := ix.Search(ctx, query, topK)
	if err != nil {
		return err
	}
	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", len(results)),
		slog.String("outcome", out.String()),
		slog.Duration("duration", time.Since(start)))
	p.recordQuery(ctx, telemetry.QueryEvent{
		Query:     query,
		Status:    out.Status,
		Results:   len(results),
		Latency:   time.Since(searchStart),
		Timestamp: searchStart,
	})

	w := output.NewWithColor(cmd.OutOrStdout(), !o.noColor && output.ColorEnabled(cmd.OutOrStdout()))
	if opts.json {
		return w.JSON(output.NewSearchReport(query, results, out))
	}
	w.Results(query, results, out, opts.preview)
	return nil
}
