package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filewire/filewire/pkg/store/localfs"
)

func TestStore_ListAndSizeAreCached(t *testing.T) {
	shareDir := t.TempDir()
	require.NoError(t, writeFile(shareDir, "a.txt", "hello"))

	inner := localfs.New(shareDir)
	c, err := New(inner, filepath.Join(t.TempDir(), "badger"), time.Minute, "", nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	names, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)

	size, err := c.Size(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)

	// second call should be served from cache and return the same values
	names2, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, names, names2)
}

func TestStore_ReadIsNeverCached(t *testing.T) {
	shareDir := t.TempDir()
	require.NoError(t, writeFile(shareDir, "a.txt", "hello world"))

	inner := localfs.New(shareDir)
	c, err := New(inner, filepath.Join(t.TempDir(), "badger"), time.Minute, "", nil)
	require.NoError(t, err)
	defer c.Close()

	data, err := c.Read(context.Background(), "a.txt", 6, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}
