// Package vectorindex holds embedded chunk vectors and serves k-nearest
// neighbor search over them. Backends register themselves by type name;
// the default is the in-memory index with on-disk snapshots, with a
// Postgres/pgvector backend available for deployments that want the corpus
// in a database instead of a local blob.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/model"
)

// Index is the vector store contract. All implementations are safe for
// concurrent use; a search never observes a partially applied mutation.
type Index interface {
	// Add indexes chunks with their order-aligned embedding vectors and
	// returns the number added. Mismatched lengths are a programming error
	// and panic rather than corrupting the index.
	Add(ctx context.Context, chunks []model.Chunk, vectors [][]float32) (int, error)

	// Search returns up to k chunks by descending cosine similarity.
	// k is clamped to [1, Count]; an empty index yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error)

	// RemoveDocument drops every chunk belonging to docID and returns how
	// many were removed. The flat in-memory structure has no native delete,
	// so its removal cost is O(remaining chunks), not O(removed).
	RemoveDocument(ctx context.Context, docID string) (int, error)

	// Entries returns an order-aligned snapshot of every indexed chunk and
	// its vector, for startup consistency checks and rebuilds.
	Entries(ctx context.Context) ([]model.Chunk, [][]float32, error)

	// Count is the exact number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Persist makes the current state durable. Backends whose writes are
	// already durable treat this as a no-op.
	Persist(ctx context.Context) error

	Close() error
}

type Factory func(args interface{}) (Index, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorIndexConfig) (Index, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_index.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector index type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector index config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector index config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector index config: %w", err)
	}
	return nil
}
