package vectorindex

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/quarind/docqa/internal/model"
)

type pgvectorConfig struct {
	DSN       string `json:"dsn"`
	Dimension int    `json:"dimension"`
}

// pgvectorIndex keeps the corpus in Postgres with the pgvector extension.
// Rows are durable on write, so Persist is a no-op and deletion is a plain
// DELETE instead of the in-memory rebuild.
type pgvectorIndex struct {
	db        *sqlx.DB
	dimension int
}

type pgChunkRow struct {
	DocID       string          `db:"doc_id"`
	ChunkIndex  int             `db:"chunk_index"`
	TotalChunks int             `db:"total_chunks"`
	Filename    string          `db:"filename"`
	Content     string          `db:"content"`
	Length      int             `db:"length"`
	Embedding   pgvector.Vector `db:"embedding"`
	Score       float64         `db:"score"`
}

func init() {
	Register("pgvector", createPgvectorIndex)
}

func createPgvectorIndex(args interface{}) (Index, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pgvector dimension is required")
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	idx := &pgvectorIndex{db: db, dimension: cfg.Dimension}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (p *pgvectorIndex) migrate() error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docqa_chunks (
			id BIGSERIAL PRIMARY KEY,
			doc_id TEXT NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			filename TEXT NOT NULL,
			content TEXT NOT NULL,
			length INT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, p.dimension),
		`CREATE INDEX IF NOT EXISTS idx_docqa_chunks_doc ON docqa_chunks (doc_id)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate pgvector index: %w", err)
		}
	}
	return nil
}

func (p *pgvectorIndex) Add(ctx context.Context, chunks []model.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		panic(fmt.Sprintf("vectorindex: %d chunks with %d vectors", len(chunks), len(vectors)))
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	const insert = `INSERT INTO docqa_chunks
		(doc_id, chunk_index, total_chunks, filename, content, length, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insert,
			chunk.DocID, chunk.ChunkIndex, chunk.TotalChunks,
			chunk.Filename, chunk.Content, chunk.Length,
			pgvector.NewVector(vectors[i]),
		); err != nil {
			return 0, fmt.Errorf("insert chunk: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (p *pgvectorIndex) Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error) {
	count, err := p.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}
	if k > count {
		k = count
	}
	const search = `SELECT doc_id, chunk_index, total_chunks, filename, content, length, embedding,
			1 - (embedding <=> $1) AS score
		FROM docqa_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`
	var rows []pgChunkRow
	if err := p.db.SelectContext(ctx, &rows, search, pgvector.NewVector(query), k); err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	results := make([]model.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		results = append(results, model.ScoredChunk{
			Chunk: model.Chunk{
				DocID:       row.DocID,
				ChunkIndex:  row.ChunkIndex,
				TotalChunks: row.TotalChunks,
				Filename:    row.Filename,
				Content:     row.Content,
				Length:      row.Length,
			},
			Score: row.Score,
		})
	}
	return results, nil
}

func (p *pgvectorIndex) RemoveDocument(ctx context.Context, docID string) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM docqa_chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (p *pgvectorIndex) Entries(ctx context.Context) ([]model.Chunk, [][]float32, error) {
	const query = `SELECT doc_id, chunk_index, total_chunks, filename, content, length, embedding
		FROM docqa_chunks
		ORDER BY doc_id, chunk_index`
	var rows []pgChunkRow
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, nil, fmt.Errorf("load chunks: %w", err)
	}
	chunks := make([]model.Chunk, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, model.Chunk{
			DocID:       row.DocID,
			ChunkIndex:  row.ChunkIndex,
			TotalChunks: row.TotalChunks,
			Filename:    row.Filename,
			Content:     row.Content,
			Length:      row.Length,
		})
		vectors = append(vectors, row.Embedding.Slice())
	}
	return chunks, vectors, nil
}

func (p *pgvectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := p.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM docqa_chunks`); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (p *pgvectorIndex) Persist(ctx context.Context) error {
	_ = ctx // rows are durable on commit
	return nil
}

func (p *pgvectorIndex) Close() error {
	return p.db.Close()
}
