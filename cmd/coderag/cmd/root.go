// Package cmd provides the CLI commands for coderag.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/internal/logging"
	"github.com/Aman-CERP/coderag/internal/profiling"
	"github.com/Aman-CERP/coderag/pkg/version"
)

// rootOptions holds the persistent flags and the resources they start.
type rootOptions struct {
	debug    bool
	logLevel string
	noColor  bool
	offline  bool
	profile  profiling.Options

	logCleanup func()
	profiler   *profiling.Session
}

// NewRootCmd creates the root command for the coderag CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "coderag",
		Short: "Local hybrid code search",
		Long: `coderag indexes a source tree into structural chunks and answers
natural-language or keyword queries with a hybrid of BM25 and
embedding similarity.

Run 'coderag index' in a project, then 'coderag search <query>'.
'coderag watch' keeps the index current while you edit.`,
		Version:            version.Version,
		SilenceUsage:       true,
		PersistentPreRunE:  opts.start,
		PersistentPostRunE: opts.stop,
	}
	cmd.SetVersionTemplate("coderag version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.coderag/logs/")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&opts.offline, "offline", false, "Use static embeddings and never call the embedding provider")
	pf.StringVar(&opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&opts.profile.Heap, "profile-mem", "", "Write heap profile to file")
	pf.StringVar(&opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newUpdateCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd, opts
}

// start installs the logger and starts profiling.
func (o *rootOptions) start(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if o.debug {
		cfg = logging.DebugConfig()
	}
	if o.logLevel != "" {
		cfg.Level = o.logLevel
	}
	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.logCleanup = cleanup
	if o.debug {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Version))
	}

	if o.profile.Enabled() {
		o.profiler, err = profiling.Start(o.profile)
		if err != nil {
			return err
		}
	}
	return nil
}

// stop flushes profiles and closes the log file. Safe to call twice.
func (o *rootOptions) stop(_ *cobra.Command, _ []string) error {
	var errs []error
	if o.profiler != nil {
		errs = append(errs, o.profiler.Stop())
		o.profiler = nil
	}
	if o.logCleanup != nil {
		o.logCleanup()
		o.logCleanup = nil
	}
	return errors.Join(errs...)
}

// applyConfigLogLevel switches to the project's log level unless a flag
// already chose one.
func (o *rootOptions) applyConfigLogLevel(level string) {
	if o.debug || o.logLevel != "" || level == "" {
		return
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	if _, err := logging.SetupDefault(cfg); err != nil {
		slog.Warn("log_level_not_applied", slog.String("error", err.Error()))
	}
}

// Execute runs the root command.
func Execute() error {
	cmd, opts := newRootCmd()
	defer func() { _ = opts.stop(cmd, nil) }()
	return cmd.Execute()
}
