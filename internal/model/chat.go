package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of conversation history supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SourceCitation attributes part of an answer to a retrieved chunk.
// Content holds a truncated preview, not the full chunk text.
type SourceCitation struct {
	DocID          string  `json:"doc_id"`
	Filename       string  `json:"filename"`
	Content        string  `json:"content"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is the result of one retrieval-augmented generation request.
// Sources are ordered by retrieval rank. TokensUsed is best effort and stays
// zero when the generation provider does not report usage.
type Answer struct {
	Answer     string           `json:"answer"`
	Sources    []SourceCitation `json:"sources"`
	ModelUsed  string           `json:"model_used"`
	TokensUsed int              `json:"tokens_used"`
	ElapsedMs  int64            `json:"response_time_ms"`
}
