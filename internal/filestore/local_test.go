package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarind/docqa/internal/config"
)

func newLocalStore(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalSaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	content := "original upload bytes"
	require.NoError(t, store.Save(ctx, "abc123.txt", strings.NewReader(content), int64(len(content))))

	rc, err := store.Open(ctx, "abc123.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, content, string(data))

	require.NoError(t, store.Remove(ctx, "abc123.txt"))
	_, err = store.Open(ctx, "abc123.txt")
	require.Error(t, err)

	require.NoError(t, store.Remove(ctx, "abc123.txt"), "removing a missing key is not an error")
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	for _, key := range []string{"", "a/b.txt", `a\b.txt`, "../escape.txt"} {
		require.Error(t, store.Save(ctx, key, strings.NewReader("x"), 1))
	}
}

func TestUnsupportedStoreType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
