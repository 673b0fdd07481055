package vectorindex

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/model"
)

func newTestIndex(t *testing.T, path string) Index {
	t.Helper()
	idx, err := New(config.VectorIndexConfig{
		Type: "memory",
		Data: map[string]interface{}{"path": path},
	})
	require.NoError(t, err)
	return idx
}

func testChunk(docID string, index int) model.Chunk {
	return model.Chunk{
		DocID:       docID,
		ChunkIndex:  index,
		TotalChunks: 2,
		Filename:    docID + ".txt",
		Content:     "content " + docID,
		Length:      10,
	}
}

func unit(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	results, err := idx.Search(context.Background(), unit(0), 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchOrderingAndClamp(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	chunks := []model.Chunk{testChunk("a", 0), testChunk("b", 0), testChunk("c", 0)}
	vectors := [][]float32{unit(0), unit(0.5), unit(1.5)}
	added, err := idx.Add(ctx, chunks, vectors)
	require.NoError(t, err)
	require.Equal(t, 3, added)

	results, err := idx.Search(ctx, unit(0), 10)
	require.NoError(t, err)
	require.Len(t, results, 3, "k must be clamped to the entry count")
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	require.Equal(t, "a", results[0].Chunk.DocID)

	results, err = idx.Search(ctx, unit(0), 0)
	require.NoError(t, err)
	require.Len(t, results, 1, "k below 1 is clamped up")
}

func TestAddMismatchedLengthsPanics(t *testing.T) {
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))
	require.Panics(t, func() {
		_, _ = idx.Add(context.Background(), []model.Chunk{testChunk("a", 0)}, nil)
	})
}

func TestRemoveDocument(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	_, err := idx.Add(ctx,
		[]model.Chunk{testChunk("keep", 0), testChunk("drop", 0), testChunk("drop", 1)},
		[][]float32{unit(0), unit(0.3), unit(0.6)})
	require.NoError(t, err)

	removed, err := idx.RemoveDocument(ctx, "drop")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	results, err := idx.Search(ctx, unit(0.3), 3)
	require.NoError(t, err)
	for _, res := range results {
		require.NotEqual(t, "drop", res.Chunk.DocID)
	}

	removed, err = idx.RemoveDocument(ctx, "absent")
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestEntriesSnapshot(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	_, err := idx.Add(ctx,
		[]model.Chunk{testChunk("a", 0), testChunk("a", 1), testChunk("b", 0)},
		[][]float32{unit(0), unit(0.3), unit(0.6)})
	require.NoError(t, err)

	chunks, vectors, err := idx.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Len(t, vectors, 3)
	require.Equal(t, "a", chunks[0].DocID)
	require.Equal(t, unit(0.3), vectors[1])

	_, err = idx.RemoveDocument(ctx, "a")
	require.NoError(t, err)
	chunks, vectors, err = idx.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, vectors, 1)
	require.Equal(t, "b", chunks[0].DocID)
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	_, err := idx.Add(ctx, []model.Chunk{testChunk("a", 0)}, [][]float32{unit(0)})
	require.NoError(t, err)

	_, err = idx.Add(ctx, []model.Chunk{testChunk("b", 0)}, [][]float32{{1, 0, 0}})
	require.Error(t, err)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count, "a rejected add must not leave partial state")
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	_, err := idx.Add(ctx, []model.Chunk{testChunk("a", 0)}, [][]float32{unit(0)})
	require.NoError(t, err)

	_, err = idx.Search(ctx, []float32{1, 0, 0}, 1)
	require.Error(t, err)
}

func TestRemovingLastDocumentAcceptsNewDimension(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "index.gob"))

	_, err := idx.Add(ctx, []model.Chunk{testChunk("a", 0)}, [][]float32{unit(0)})
	require.NoError(t, err)
	_, err = idx.RemoveDocument(ctx, "a")
	require.NoError(t, err)

	// Emptying the index clears the dimension, so switching embedding
	// models only requires re-ingesting the corpus.
	_, err = idx.Add(ctx, []model.Chunk{testChunk("b", 0)}, [][]float32{{1, 0, 0}})
	require.NoError(t, err)
}

func TestLoadSnapshotWithMixedDimensionsStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(file).Encode(memorySnapshot{
		Chunks:  []model.Chunk{testChunk("a", 0), testChunk("b", 0)},
		Vectors: [][]float32{{1, 0}, {1, 0, 0}},
	}))
	require.NoError(t, file.Close())

	idx := newTestIndex(t, path)
	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.gob")

	idx := newTestIndex(t, path)
	_, err := idx.Add(ctx,
		[]model.Chunk{testChunk("a", 0), testChunk("b", 0)},
		[][]float32{unit(0), unit(1)})
	require.NoError(t, err)
	require.NoError(t, idx.Persist(ctx))
	require.NoError(t, idx.Close())

	reloaded := newTestIndex(t, path)
	count, err := reloaded.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	results, err := reloaded.Search(ctx, unit(0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].Chunk.DocID)
	require.Equal(t, "content a", results[0].Chunk.Content)
}

func TestLoadMissingSnapshotStartsEmpty(t *testing.T) {
	idx := newTestIndex(t, filepath.Join(t.TempDir(), "nope", "index.gob"))
	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestLoadCorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, os.WriteFile(path, []byte("definitely not gob"), 0o644))

	idx := newTestIndex(t, path)
	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}
