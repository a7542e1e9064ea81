package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

func TestSearchCmd_RequiresIndex(t *testing.T) {
	// Given: a project that was never indexed
	root := newProject(t)

	// When: searching
	_, err := run(t, "search", "--offline", "-C", root, "parse")

	// Then: the error says so
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeIndexNotFound))
	assert.NoDirExists(t, root+"/.coderag")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := run(t, "search")

	assert.Error(t, err)
}

func TestSearchCmd_BlankQuery(t *testing.T) {
	root := newProject(t)
	mustIndex(t, root)

	_, err := run(t, "search", "--offline", "-C", root, "   ")

	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidArgument))
}

func TestSearchCmd_TextOutput(t *testing.T) {
	// Given: an indexed project
	root := newProject(t)
	mustIndex(t, root)

	// When: searching for a function name
	out, err := run(t, "search", "--offline", "-C", root, "parse_config")

	// Then: the function's chunk is listed with a preview
	require.NoError(t, err)
	assert.Contains(t, out, " 1. config.py:1-8")
	assert.Contains(t, out, "def parse_config(path):")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	// Given: an indexed project
	root := newProject(t)
	mustIndex(t, root)

	// When: searching with --json and a limit
	out, err := run(t, "search", "--offline", "--json", "-k", "1", "-C", root, "Serve listening addr")
	require.NoError(t, err)

	// Then: the output is one report with at most one result
	var report struct {
		Query   string `json:"query"`
		Status  string `json:"status"`
		Results []struct {
			Chunk struct {
				FilePath string `json:"file_path"`
			} `json:"chunk"`
			Score float64 `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Serve listening addr", report.Query)
	assert.Equal(t, "ok", report.Status)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "server/server.go", report.Results[0].Chunk.FilePath)
	assert.Greater(t, report.Results[0].Score, 0.0)
}
