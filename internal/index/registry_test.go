package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/config"
	"github.com/Aman-CERP/coderag/internal/embed"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

func testOpener(opened *[]string) Opener {
	return func(root string) (*Indexer, error) {
		*opened = append(*opened, root)
		return New(root, config.NewConfig(), WithEmbedder(embed.NewStaticClient(16)))
	}
}

func TestRegistry_GetReturnsOneIndexerPerRoot(t *testing.T) {
	// Given: two projects
	rootA, rootB := t.TempDir(), t.TempDir()
	var opened []string
	reg := NewRegistry(testOpener(&opened))
	t.Cleanup(func() { _ = reg.Reset() })

	// When: getting each root twice, once through a relative-looking path
	a1, err := reg.Get(context.Background(), rootA)
	require.NoError(t, err)
	a2, err := reg.Get(context.Background(), filepath.Join(rootA, "sub", ".."))
	require.NoError(t, err)
	b, err := reg.Get(context.Background(), rootB)
	require.NoError(t, err)

	// Then: each root was opened once
	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, []string{rootA, rootB}, opened)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_GetRestoresIndex(t *testing.T) {
	// Given: a project indexed earlier
	root := t.TempDir()
	writeProject(t, root, map[string]string{"a.py": "A = 'alpha'\n"})
	ix, err := New(root, config.NewConfig(), WithEmbedder(embed.NewStaticClient(16)))
	require.NoError(t, err)
	_, err = ix.Index(context.Background())
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	// When: the registry opens it
	var opened []string
	reg := NewRegistry(testOpener(&opened))
	t.Cleanup(func() { _ = reg.Reset() })
	restored, err := reg.Get(context.Background(), root)

	// Then: the corpus is already published
	require.NoError(t, err)
	assert.Len(t, restored.Chunks(), 1)
}

func TestRegistry_OpenErrorIsNotCached(t *testing.T) {
	calls := 0
	reg := NewRegistry(func(root string) (*Indexer, error) {
		calls++
		return nil, errors.New("boom")
	})

	_, err1 := reg.Get(context.Background(), t.TempDir())
	_, err2 := reg.Get(context.Background(), t.TempDir())

	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_ResetClosesIndexers(t *testing.T) {
	// Given: an open indexer
	var opened []string
	reg := NewRegistry(testOpener(&opened))
	root := t.TempDir()
	ix, err := reg.Get(context.Background(), root)
	require.NoError(t, err)

	// When: resetting
	require.NoError(t, reg.Reset())

	// Then: the indexer is closed and the next Get opens a new one
	_, _, err = ix.Search(context.Background(), "x", 1)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeIndexClosed))
	assert.Equal(t, 0, reg.Len())

	again, err := reg.Get(context.Background(), root)
	require.NoError(t, err)
	assert.NotSame(t, ix, again)
	assert.Len(t, opened, 2)
	require.NoError(t, reg.Reset())
}
