package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const configSource = `def parse_config(path):
    with open(path) as f:
        data = f.read()
    values = {}
    for line in data.splitlines():
        key, _, value = line.partition("=")
        values[key.strip()] = value.strip()
    return values
`

const serverSource = `package server

// Serve starts listening on addr.
func Serve(addr string) error {
	if addr == "" {
		addr = ":8080"
	}
	return listen(addr)
}
`

// syncBuffer is a bytes.Buffer safe for a command writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeProject(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

// newProject writes a small two-file project.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("VOYAGE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"config.py":        configSource,
		"server/server.go": serverSource,
	})
	return root
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(context.Background(), t, args...)
}

func runContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func mustIndex(t *testing.T, root string) {
	t.Helper()
	out, err := run(t, "index", "--offline", "--no-tui", root)
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "Indexed: 2 files"), out)
}
