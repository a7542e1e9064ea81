package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/configs"
	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

func TestInitCmd_WritesProjectConfig(t *testing.T) {
	// Given: an empty project
	root := newProject(t)

	// When: running init
	out, err := run(t, "init", root)

	// Then: the template is written, loads cleanly and the cache is ignored
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+filepath.Join(root, ".coderag.yaml"))
	data, err := os.ReadFile(filepath.Join(root, ".coderag.yaml"))
	require.NoError(t, err)
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))

	_, err = config.Load(root)
	assert.NoError(t, err)

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "# coderag index data\n.coderag/\n", string(ignore))
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	root := newProject(t)
	writeProject(t, root, map[string]string{".coderag.yaml": "search:\n  top_k: 9\n"})

	_, err := run(t, "init", root)

	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidArgument))
	data, _ := os.ReadFile(filepath.Join(root, ".coderag.yaml"))
	assert.Equal(t, "search:\n  top_k: 9\n", string(data))
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	root := newProject(t)
	writeProject(t, root, map[string]string{".coderag.yaml": "search:\n  top_k: 9\n"})

	_, err := run(t, "init", "--force", root)

	require.NoError(t, err)
	data, _ := os.ReadFile(filepath.Join(root, ".coderag.yaml"))
	assert.Equal(t, configs.ProjectConfigTemplate, string(data))
}

func TestInitCmd_UserConfig(t *testing.T) {
	// Given: an isolated user config directory
	newProject(t)

	// When: running init --user
	_, err := run(t, "init", "--user")

	// Then: the user template lands at the XDG path
	require.NoError(t, err)
	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))
}

func TestEnsureGitignore(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
		added    bool
	}{
		{"appends after content", "node_modules/\n", "node_modules/\n\n# coderag index data\n.coderag/\n", true},
		{"adds missing newline", "dist", "dist\n\n# coderag index data\n.coderag/\n", true},
		{"keeps CRLF", "dist\r\n", "dist\r\n\r\n# coderag index data\r\n.coderag/\r\n", true},
		{"already ignored", "/.coderag/\n", "/.coderag/\n", false},
		{"comment does not count", "# .coderag\n", "# .coderag\n\n# coderag index data\n.coderag/\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, ".gitignore")
			require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0644))

			added, err := ensureGitignore(root, ".coderag")

			require.NoError(t, err)
			assert.Equal(t, tt.added, added)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
