package vectorindex

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quarind/docqa/internal/model"
)

type memoryConfig struct {
	Path string `json:"path"`
}

// memoryIndex is a flat brute-force cosine index over parallel chunk/vector
// slices. Vectors are stored normalized, so similarity is a plain dot
// product. Mutations build fresh slices and swap them in under the write
// lock; readers holding the read lock always see a complete state.
type memoryIndex struct {
	mu        sync.RWMutex
	path      string
	dimension int
	chunks    []model.Chunk
	vectors   [][]float32
}

type memorySnapshot struct {
	Chunks  []model.Chunk
	Vectors [][]float32
}

func init() {
	Register("memory", createMemoryIndex)
}

func createMemoryIndex(args interface{}) (Index, error) {
	cfg := &memoryConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("memory index path is required")
	}
	idx := &memoryIndex{path: cfg.Path}
	if err := idx.load(); err != nil {
		// A damaged snapshot must not prevent startup: begin empty and let
		// re-ingestion repopulate the corpus.
		logutil.GetLogger(context.Background()).Warn("vector index snapshot unreadable, starting empty",
			zap.String("path", cfg.Path), zap.Error(err))
		idx.chunks = nil
		idx.vectors = nil
	}
	return idx, nil
}

func (m *memoryIndex) Add(ctx context.Context, chunks []model.Chunk, vectors [][]float32) (int, error) {
	_ = ctx
	if len(chunks) != len(vectors) {
		panic(fmt.Sprintf("vectorindex: %d chunks with %d vectors", len(chunks), len(vectors)))
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dim := m.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, vec := range vectors {
		if len(vec) != dim {
			// A dimension change means the embedding model changed; mixing
			// vectors of different lengths would produce garbage scores.
			return 0, fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), dim)
		}
	}
	m.dimension = dim
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return len(chunks), nil
}

func (m *memoryIndex) Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chunks) == 0 {
		return nil, nil
	}
	if len(query) != m.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), m.dimension)
	}
	if k < 1 {
		k = 1
	}
	if k > len(m.chunks) {
		k = len(m.chunks)
	}
	scored := make([]model.ScoredChunk, len(m.chunks))
	for i := range m.chunks {
		scored[i] = model.ScoredChunk{Chunk: m.chunks[i], Score: dot(m.vectors[i], query)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored[:k], nil
}

func (m *memoryIndex) RemoveDocument(ctx context.Context, docID string) (int, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	// No native delete: rebuild without the document, reusing the stored
	// vectors so nothing needs re-embedding.
	kept := make([]model.Chunk, 0, len(m.chunks))
	keptVectors := make([][]float32, 0, len(m.vectors))
	removed := 0
	for i, chunk := range m.chunks {
		if chunk.DocID == docID {
			removed++
			continue
		}
		kept = append(kept, chunk)
		keptVectors = append(keptVectors, m.vectors[i])
	}
	m.chunks = kept
	m.vectors = keptVectors
	if len(kept) == 0 {
		// An emptied index accepts whatever dimension comes next, so an
		// embedding model switch only requires re-ingesting the corpus.
		m.dimension = 0
	}
	return removed, nil
}

func (m *memoryIndex) Entries(ctx context.Context) ([]model.Chunk, [][]float32, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := make([]model.Chunk, len(m.chunks))
	copy(chunks, m.chunks)
	vectors := make([][]float32, len(m.vectors))
	copy(vectors, m.vectors)
	return chunks, vectors, nil
}

func (m *memoryIndex) Count(ctx context.Context) (int, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *memoryIndex) Persist(ctx context.Context) error {
	_ = ctx
	m.mu.RLock()
	snapshot := memorySnapshot{Chunks: m.chunks, Vectors: m.vectors}
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := m.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index snapshot: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(snapshot); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index snapshot: %w", err)
	}
	// Rename keeps the previous snapshot intact if the write above died.
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace index snapshot: %w", err)
	}
	return nil
}

func (m *memoryIndex) Close() error {
	return nil
}

func (m *memoryIndex) load() error {
	file, err := os.Open(m.path)
	if os.IsNotExist(err) {
		return nil // no corpus yet
	}
	if err != nil {
		return err
	}
	defer file.Close()
	var snapshot memorySnapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode index snapshot: %w", err)
	}
	if len(snapshot.Chunks) != len(snapshot.Vectors) {
		return fmt.Errorf("index snapshot has %d chunks but %d vectors", len(snapshot.Chunks), len(snapshot.Vectors))
	}
	dim := 0
	for _, vec := range snapshot.Vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return fmt.Errorf("index snapshot mixes vector dimensions %d and %d", dim, len(vec))
		}
	}
	m.dimension = dim
	m.chunks = snapshot.Chunks
	m.vectors = snapshot.Vectors
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
