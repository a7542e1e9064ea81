package cmd

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/index"
	"github.com/Aman-CERP/coderag/internal/ui"
)

// project is a resolved project root and its configuration.
type project struct {
	root string
	cfg  *config.Config
}

// loadProject resolves the project from an optional path argument. Without
// one, the root is found by walking up from the working directory.
func (o *rootOptions) loadProject(args []string) (*project, error) {
	var (
		root string
		err  error
	)
	if len(args) > 0 && args[0] != "" {
		root, err = filepath.Abs(args[0])
	} else {
		root, err = config.FindProjectRoot(".")
	}
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, cerrors.InvalidArgument("%s is not a directory", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if o.offline {
		cfg.Embeddings.Provider = config.ProviderStatic
	}
	o.applyConfigLogLevel(cfg.LogLevel)

	return &project{root: root, cfg: cfg}, nil
}

func (p *project) cacheDir() string {
	return p.cfg.CachePath(p.root)
}

// indexed reports whether a manifest has been written for the project.
func (p *project) indexed() bool {
	_, err := os.Stat(filepath.Join(p.cacheDir(), index.ManifestFile))
	return err == nil
}

// requireIndex fails with INDEX_NOT_FOUND when the project was never indexed.
func (p *project) requireIndex() error {
	if p.indexed() {
		return nil
	}
	return cerrors.New(cerrors.ErrCodeIndexNotFound, "no index found for "+p.root, nil).
		WithSuggestion("Run 'coderag index' first")
}

func (p *project) open(opts ...index.Option) (*index.Indexer, error) {
	return index.New(p.root, p.cfg, opts...)
}

// renderer builds the progress renderer for index and update.
func (o *rootOptions) renderer(cmd *cobra.Command, p *project, plain bool) ui.Renderer {
	return ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(plain),
		ui.WithNoColor(o.noColor || ui.DetectNoColor()),
		ui.WithProjectDir(p.root),
	))
}

// dirSize sums the sizes of regular files under dir.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
