package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/internal/index"
	"github.com/Aman-CERP/coderag/internal/ui"
)

// Embedder states reported by status.
const (
	embedderReady    = "ready"
	embedderFallback = "fallback"
	embedderDisabled = "disabled"
)

func newStatusCmd(o *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show index status",
		Long: `Show what is indexed for the project: files, chunks and vectors, when
the index was last built, the backends in use and the cache size.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.loadProject(args)
			if err != nil {
				return err
			}
			info, err := collectStatus(p)
			if err != nil {
				return err
			}
			info.Queries = p.queryStats(cmd.Context())

			r := ui.NewStatusRenderer(cmd.OutOrStdout(), o.noColor || !ui.IsTTY(cmd.OutOrStdout()) || ui.DetectNoColor())
			if jsonOutput {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

// collectStatus reads the persisted index without loading the corpus. An
// unindexed project is reported without creating the cache directory.
func collectStatus(p *project) (ui.StatusInfo, error) {
	info := ui.StatusInfo{
		ProjectDir:     p.root,
		CacheDir:       p.cacheDir(),
		LexicalBackend: p.cfg.Search.LexicalBackend,
		VectorBackend:  p.cfg.VectorStore.Backend,
		EmbedderState:  embedderDisabled,
	}
	if !p.indexed() {
		return info, nil
	}

	ix, err := p.open()
	if err != nil {
		return info, err
	}
	defer func() { _ = ix.Close() }()

	st := ix.Status()
	info.Indexed = true
	info.Files = st.Files
	info.Chunks = st.Chunks
	info.Vectors = st.Vectors
	info.LastIndexed = st.LastIndexed
	info.EmbeddingModel = st.EmbeddingModel
	info.EmbedderState = embedderState(p, st)
	info.CacheSize = dirSize(info.CacheDir)
	return info, nil
}

func embedderState(p *project, st index.Status) string {
	switch {
	case !p.cfg.Search.VectorEnabled || st.EmbeddingModel == "":
		return embedderDisabled
	case st.FallbackMode:
		return embedderFallback
	default:
		return embedderReady
	}
}
