package model

import "time"

// Chunk is a bounded contiguous segment of a source document, the unit of
// embedding and retrieval. Identity is (DocID, ChunkIndex); a chunk is
// immutable once created.
type Chunk struct {
	DocID       string `json:"doc_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	Length      int    `json:"length"`
}

// ScoredChunk is a chunk paired with its relevance score from a similarity
// search. Scores are cosine similarities over normalized vectors.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// DocumentRecord is the manifest entry for an ingested document. DocID is a
// deterministic digest of the file content, so re-ingesting identical bytes
// always maps to the same record.
type DocumentRecord struct {
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	NumChunks  int       `json:"num_chunks"`
	UploadTime time.Time `json:"upload_time"`
	SizeBytes  int64     `json:"size_bytes"`
}

// Health summarizes index readiness for the health endpoint.
type Health struct {
	Ready      bool `json:"ready"`
	DocCount   int  `json:"doc_count"`
	ChunkCount int  `json:"chunk_count"`
}
