package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quarind/docqa/internal/model"
)

func testRecord(docID string, uploaded time.Time, chunks int) model.DocumentRecord {
	return model.DocumentRecord{
		DocID:      docID,
		Filename:   docID + ".txt",
		FileType:   "txt",
		NumChunks:  chunks,
		UploadTime: uploaded,
		SizeBytes:  1024,
	}
}

func TestStoreCRUD(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "manifest.json"))
	now := time.Now().UTC()

	_, ok := store.Get("a")
	require.False(t, ok)

	store.Put(testRecord("a", now, 3))
	rec, ok := store.Get("a")
	require.True(t, ok)
	require.Equal(t, 3, rec.NumChunks)
	require.Equal(t, 1, store.Count())

	store.Put(testRecord("a", now, 5))
	rec, _ = store.Get("a")
	require.Equal(t, 5, rec.NumChunks, "put replaces an existing record")
	require.Equal(t, 1, store.Count())

	require.True(t, store.Delete("a"))
	require.False(t, store.Delete("a"))
	require.Zero(t, store.Count())
}

func TestListAllOrderedByUploadTime(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "manifest.json"))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	store.Put(testRecord("newest", base.Add(2*time.Hour), 1))
	store.Put(testRecord("oldest", base, 1))
	store.Put(testRecord("middle", base.Add(time.Hour), 1))

	records := store.ListAll()
	require.Len(t, records, 3)
	require.Equal(t, "oldest", records[0].DocID)
	require.Equal(t, "middle", records[1].DocID)
	require.Equal(t, "newest", records[2].DocID)
}

func TestChunkTotal(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "manifest.json"))
	now := time.Now().UTC()
	store.Put(testRecord("a", now, 3))
	store.Put(testRecord("b", now, 7))
	require.Equal(t, 10, store.ChunkTotal())
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	store := NewStore(path)
	store.Put(testRecord("a", now, 2))
	store.Put(testRecord("b", now.Add(time.Minute), 4))
	require.NoError(t, store.Persist())

	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 2, reloaded.Count())
	rec, ok := reloaded.Get("b")
	require.True(t, ok)
	require.Equal(t, 4, rec.NumChunks)
	require.True(t, rec.UploadTime.Equal(now.Add(time.Minute)))
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, store.Load())
	require.Zero(t, store.Count())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	store := NewStore(path)
	require.Error(t, store.Load())
}
