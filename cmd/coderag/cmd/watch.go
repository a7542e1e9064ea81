package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/internal/index"
	"github.com/Aman-CERP/coderag/internal/output"
	"github.com/Aman-CERP/coderag/internal/watcher"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	poll         bool
	pollInterval time.Duration
	debounce     time.Duration
}

func newWatchCmd(o *rootOptions) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Keep the index current as files change",
		Long: `Bring the index up to date, then watch the project and apply an
incremental update after every burst of file changes.

Changes to .gitignore take effect on the next update. Changes to the
project config file are reported but need a restart to apply.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := o.loadProject(args)
			if err != nil {
				return err
			}
			return runWatch(ctx, cmd, o, p, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll the file system instead of using native notifications")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", 0, "Polling period (default 5s)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet period before an update (default from config)")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, o *rootOptions, p *project, opts watchOptions) error {
	out := output.NewWithColor(cmd.OutOrStdout(), !o.noColor && output.ColorEnabled(cmd.OutOrStdout()))

	indexers := index.NewRegistry(func(root string) (*index.Indexer, error) {
		return index.New(root, p.cfg)
	})
	defer func() { _ = indexers.Reset() }()

	ix, err := indexers.Get(ctx, p.root)
	if err != nil {
		return err
	}
	initial, err := ix.Update(ctx)
	if err != nil {
		return err
	}
	st := ix.Status()
	out.Successf("Index ready: %d files, %d chunks (%d added, %d updated, %d removed)",
		st.Files, st.Chunks, initial.Added, initial.Updated, initial.Removed)

	debounce := opts.debounce
	if debounce <= 0 {
		debounce = p.cfg.Watch.Debounce
	}
	w, err := watcher.New(p.root, ix.Scanner(), watcher.Options{
		Debounce:     debounce,
		PollInterval: opts.pollInterval,
		ForcePolling: opts.poll,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	mode := "native notifications"
	if w.Polling() {
		mode = "polling"
	}
	out.Successf("Watching %s (%s), press Ctrl+C to stop", p.root, mode)

	startErr := make(chan error, 1)
	go func() {
		err := w.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			// Closing the events channel ends Run below.
			_ = w.Stop()
		} else {
			err = nil
		}
		startErr <- err
	}()

	runCfg := watcher.DefaultRunConfig()
	runCfg.OnUpdate = func(batch []watcher.FileEvent, stats index.UpdateStats) {
		if !stats.Changed() {
			return
		}
		out.Successf("Updated: %d added, %d updated, %d removed (%d events)",
			stats.Added, stats.Updated, stats.Removed, len(batch))
	}

	runErr := watcher.Run(ctx, w.Events(), ix, runCfg)
	_ = w.Stop()
	if err := <-startErr; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
