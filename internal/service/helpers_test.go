package service

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quarind/docqa/internal/ai"
	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/manifest"
	"github.com/quarind/docqa/internal/model"
	"github.com/quarind/docqa/internal/vectorindex"
)

// stubEmbedder delegates to fn so tests control vectors and failures.
type stubEmbedder struct {
	fn    func(text, taskType string) ([]float32, error)
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	return s.fn(text, taskType)
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := s.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

// hashEmbedder maps any text to a deterministic unit vector.
func hashEmbedder() *stubEmbedder {
	return &stubEmbedder{fn: func(text, taskType string) ([]float32, error) {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, 8)
		var norm float64
		for i := range vec {
			vec[i] = float32(sum[i]) + 1
			norm += float64(vec[i]) * float64(vec[i])
		}
		for i := range vec {
			vec[i] /= float32(norm)
		}
		return vec, nil
	}}
}

// stubGenerator records the last request it saw.
type stubGenerator struct {
	fn      func(req ai.ChatRequest) (*ai.ChatResult, error)
	lastReq *ai.ChatRequest
	calls   int
}

func (s *stubGenerator) Generate(ctx context.Context, req ai.ChatRequest) (*ai.ChatResult, error) {
	s.calls++
	s.lastReq = &req
	if s.fn != nil {
		return s.fn(req)
	}
	return &ai.ChatResult{Text: "stub answer", TokensUsed: 42}, nil
}

func (s *stubGenerator) ModelName() string { return "stub-model" }

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	return &config.Config{
		Port:    8080,
		DataDir: dataDir,
		Chunking: config.ChunkingConfig{
			Size:    200,
			Overlap: 40,
		},
		Retrieval: config.RetrievalConfig{
			TopK:              2,
			MaxTopK:           3,
			ContextCharBudget: 40000,
			HistoryWindow:     4,
			PreviewChars:      10,
			ScorePrecision:    4,
		},
		Ingest: config.IngestConfig{
			MaxFileSizeMB:     1,
			AllowedExtensions: []string{"txt", "md"},
		},
	}
}

func newTestIndex(t *testing.T, cfg *config.Config) vectorindex.Index {
	t.Helper()
	idx, err := vectorindex.New(config.VectorIndexConfig{
		Type: "memory",
		Data: map[string]interface{}{"path": filepath.Join(cfg.DataDir, "index.gob")},
	})
	require.NoError(t, err)
	return idx
}

func newTestManifest(cfg *config.Config) *manifest.Store {
	return manifest.NewStore(cfg.ManifestPath())
}

func orphanRecord(docID string, chunks int) model.DocumentRecord {
	return model.DocumentRecord{
		DocID:      docID,
		Filename:   "orphan.txt",
		FileType:   "txt",
		NumChunks:  chunks,
		UploadTime: time.Now().UTC(),
		SizeBytes:  123,
	}
}
