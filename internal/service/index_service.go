// Package service implements the two orchestration layers over the corpus:
// IndexService owns the document lifecycle (ingest, delete, reload, persist)
// and RAGService answers questions against what IndexService has indexed.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quarind/docqa/internal/ai"
	"github.com/quarind/docqa/internal/chunker"
	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/loader"
	"github.com/quarind/docqa/internal/manifest"
	"github.com/quarind/docqa/internal/model"
	appErr "github.com/quarind/docqa/internal/pkg/errors"
	"github.com/quarind/docqa/internal/vectorindex"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// IndexService coordinates the manifest and the vector index so the two
// stay in step. A single write lock gates every mutation; embedding happens
// before the lock is taken so slow provider calls never block reads.
type IndexService struct {
	mu       sync.RWMutex
	cfg      *config.Config
	chunker  *chunker.Chunker
	embedder ai.IEmbedder
	index    vectorindex.Index
	manifest *manifest.Store
	allowed  map[string]struct{}
}

func NewIndexService(cfg *config.Config, embedder ai.IEmbedder, index vectorindex.Index, man *manifest.Store) (*IndexService, error) {
	ck, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(cfg.Ingest.AllowedExtensions))
	for _, ext := range cfg.Ingest.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &IndexService{
		cfg:      cfg,
		chunker:  ck,
		embedder: embedder,
		index:    index,
		manifest: man,
		allowed:  allowed,
	}, nil
}

// Reload restores the manifest from disk and cross-checks it against the
// index, per document. Mismatches are logged and tolerated: the index
// snapshot and the manifest are persisted separately, so a crash between
// the two writes can leave them one document apart.
func (s *IndexService) Reload(ctx context.Context) error {
	if err := s.manifest.Load(); err != nil {
		return err
	}
	chunks, _, err := s.index.Entries(ctx)
	if err != nil {
		return err
	}
	perDoc := make(map[string]int, s.manifest.Count())
	for _, chunk := range chunks {
		perDoc[chunk.DocID]++
	}
	if expected := s.manifest.ChunkTotal(); expected != len(chunks) {
		logutil.GetLogger(ctx).Warn("manifest and vector index disagree on chunk count",
			zap.Int("manifest_chunks", expected), zap.Int("indexed_chunks", len(chunks)))
	}
	for _, rec := range s.manifest.ListAll() {
		if indexed := perDoc[rec.DocID]; indexed != rec.NumChunks {
			logutil.GetLogger(ctx).Warn("document chunk count mismatch",
				zap.String("doc_id", rec.DocID),
				zap.Int("manifest_chunks", rec.NumChunks),
				zap.Int("indexed_chunks", indexed))
		}
	}
	return nil
}

// Ingest loads, chunks, embeds and indexes the file at path, recording it
// in the manifest under a content-derived doc id. Re-ingesting identical
// content replaces the previous version instead of duplicating it.
func (s *IndexService) Ingest(ctx context.Context, path string, filename string) (*model.DocumentRecord, error) {
	ext := fileExtension(filename)
	if _, ok := s.allowed[ext]; !ok {
		return nil, fmt.Errorf("%w: .%s", appErr.ErrUnsupportedType, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat upload: %v", appErr.ErrIO, err)
	}
	if limit := s.cfg.Ingest.MaxFileSizeMB * 1024 * 1024; info.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %dMB limit", appErr.ErrTooLarge, info.Size(), s.cfg.Ingest.MaxFileSizeMB)
	}

	ldr, err := loader.ForExtension(ext)
	if err != nil {
		return nil, err
	}
	text, err := ldr.Load(path)
	if err != nil {
		return nil, err
	}

	docID := contentDigest(text)
	chunks, err := s.chunker.Split(text, docID, filename)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}
	// Embedding runs before the write lock: provider latency must not stall
	// concurrent searches or listings.
	vectors, err := s.embedder.EmbedBatch(ctx, contents, taskTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}

	record := model.DocumentRecord{
		DocID:      docID,
		Filename:   filename,
		FileType:   ext,
		NumChunks:  len(chunks),
		UploadTime: time.Now().UTC(),
		SizeBytes:  info.Size(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifest.Get(docID); exists {
		if _, err := s.index.RemoveDocument(ctx, docID); err != nil {
			return nil, err
		}
		logutil.GetLogger(ctx).Info("replacing previously ingested document",
			zap.String("doc_id", docID), zap.String("filename", filename))
	}
	if _, err := s.index.Add(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	s.manifest.Put(record)
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	logutil.GetLogger(ctx).Info("document ingested",
		zap.String("doc_id", docID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
		zap.Int64("size_bytes", info.Size()))
	return &record, nil
}

// Delete removes a document from the manifest and the index. It reports
// whether anything was actually removed so callers can answer 404 for an
// unknown id.
func (s *IndexService) Delete(ctx context.Context, docID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := s.manifest.Delete(docID)
	removed, err := s.index.RemoveDocument(ctx, docID)
	if err != nil {
		return false, err
	}
	if !existed && removed == 0 {
		return false, nil
	}
	if err := s.persistLocked(ctx); err != nil {
		return false, err
	}
	logutil.GetLogger(ctx).Info("document deleted",
		zap.String("doc_id", docID), zap.Int("chunks_removed", removed))
	return true, nil
}

func (s *IndexService) ListDocuments() []model.DocumentRecord {
	return s.manifest.ListAll()
}

func (s *IndexService) GetDocument(docID string) (model.DocumentRecord, bool) {
	return s.manifest.Get(docID)
}

func (s *IndexService) Health(ctx context.Context) (model.Health, error) {
	chunks, err := s.index.Count(ctx)
	if err != nil {
		return model.Health{}, err
	}
	return model.Health{
		Ready:      true,
		DocCount:   s.manifest.Count(),
		ChunkCount: chunks,
	}, nil
}

// Persist snapshots the index and the manifest. Safe to call at any time;
// used by the shutdown path and the periodic snapshot job.
func (s *IndexService) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *IndexService) persistLocked(ctx context.Context) error {
	if err := s.index.Persist(ctx); err != nil {
		return err
	}
	return s.manifest.Persist()
}

func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// contentDigest derives the doc id from the extracted text, truncated to a
// compact hex handle. Identical content always produces the same id.
func contentDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
