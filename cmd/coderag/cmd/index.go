package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/internal/index"
	"github.com/Aman-CERP/coderag/internal/ui"
)

func newIndexCmd(o *rootOptions) *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build the index from scratch",
		Long: `Scan the project, split every supported file into structural chunks,
fit the lexical scorer and embed each chunk.

Any existing index for the project is replaced. Use 'coderag update'
to apply only the files that changed since the last run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := o.loadProject(args)
			if err != nil {
				return err
			}
			return runIndex(ctx, cmd, o, p, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, o *rootOptions, p *project, noTUI bool) error {
	renderer := o.renderer(cmd, p, noTUI)
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	ix, err := p.open(index.WithProgress(renderer))
	if err != nil {
		_ = renderer.Stop()
		return err
	}
	defer func() { _ = ix.Close() }()

	start := time.Now()
	chunks, err := ix.Index(ctx)
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	st := ix.Status()
	renderer.Complete(ui.CompletionStats{
		Operation: "index",
		Files:     st.Files,
		Chunks:    chunks,
		Vectors:   st.Vectors,
		Duration:  time.Since(start),
	})
	return renderer.Stop()
}

func newUpdateCmd(o *rootOptions) *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "update [path]",
		Short: "Apply changed files to the index",
		Long: `Compare the project with the last indexed state and rechunk only what
changed: new files are added, modified files replaced and deleted files
dropped. Without a previous index every file counts as new.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := o.loadProject(args)
			if err != nil {
				return err
			}
			return runUpdate(ctx, cmd, o, p, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	return cmd
}

func runUpdate(ctx context.Context, cmd *cobra.Command, o *rootOptions, p *project, noTUI bool) error {
	renderer := o.renderer(cmd, p, noTUI)
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	ix, err := p.open(index.WithProgress(renderer))
	if err != nil {
		_ = renderer.Stop()
		return err
	}
	defer func() { _ = ix.Close() }()

	start := time.Now()
	// Unchanged files keep their chunks only if the previous corpus is loaded.
	if _, err := ix.Restore(ctx); err != nil {
		_ = renderer.Stop()
		return err
	}
	stats, err := ix.Update(ctx)
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	st := ix.Status()
	renderer.Complete(ui.CompletionStats{
		Operation: "update",
		Files:     st.Files,
		Chunks:    st.Chunks,
		Vectors:   st.Vectors,
		Added:     stats.Added,
		Updated:   stats.Updated,
		Removed:   stats.Removed,
		Duration:  time.Since(start),
	})
	return renderer.Stop()
}
