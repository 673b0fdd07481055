package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quarind/docqa/internal/ai"
	"github.com/quarind/docqa/internal/config"
	"github.com/quarind/docqa/internal/model"
	appErr "github.com/quarind/docqa/internal/pkg/errors"
	"github.com/quarind/docqa/internal/vectorindex"
)

const truncationMarker = "...(truncated)"

const emptyCorpusAnswer = "No documents have been uploaded yet. Please upload documents first, then ask your question again."

const systemPrompt = `You are a document question answering assistant. Answer the user's question using only the information in the numbered source excerpts below. If the sources do not contain the answer, say so plainly instead of guessing. When you use a source, mention it by its number.

Sources:
%s`

// RAGService answers questions by retrieving the most relevant chunks,
// assembling them into a bounded context block and asking the generator.
type RAGService struct {
	cfg       *config.Config
	embedder  ai.IEmbedder
	generator ai.IGenerator
	index     vectorindex.Index
}

func NewRAGService(cfg *config.Config, embedder ai.IEmbedder, generator ai.IGenerator, index vectorindex.Index) *RAGService {
	return &RAGService{cfg: cfg, embedder: embedder, generator: generator, index: index}
}

// Answer runs the full retrieve-then-generate pipeline for one question.
// An empty corpus short-circuits to a canned answer without touching the
// generator; provider failures surface as capability errors.
func (s *RAGService) Answer(ctx context.Context, question string, history []model.ChatMessage, topK int) (*model.Answer, error) {
	started := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	topK = s.clampTopK(topK)

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &model.Answer{
			Answer:    emptyCorpusAnswer,
			Sources:   []model.SourceCitation{},
			ModelUsed: s.generator.ModelName(),
			ElapsedMs: time.Since(started).Milliseconds(),
		}, nil
	}

	query, err := s.embedder.Embed(ctx, question, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}
	scored, err := s.index.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	contextBlock, truncated := s.assembleContext(scored)
	if truncated {
		logutil.GetLogger(ctx).Warn("retrieval context exceeded budget, truncated",
			zap.Int("budget_chars", s.cfg.Retrieval.ContextCharBudget), zap.Int("chunks", len(scored)))
	}

	req := ai.ChatRequest{
		System:   fmt.Sprintf(systemPrompt, contextBlock),
		History:  windowHistory(history, s.cfg.Retrieval.HistoryWindow),
		Question: question,
	}
	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrGenerationUnavailable, err)
	}

	answer := &model.Answer{
		Answer:     result.Text,
		Sources:    s.citations(scored),
		ModelUsed:  s.generator.ModelName(),
		TokensUsed: result.TokensUsed,
		ElapsedMs:  time.Since(started).Milliseconds(),
	}
	logutil.GetLogger(ctx).Info("question answered",
		zap.Int("sources", len(answer.Sources)),
		zap.Int("tokens_used", answer.TokensUsed),
		zap.Int64("elapsed_ms", answer.ElapsedMs))
	return answer, nil
}

func (s *RAGService) clampTopK(topK int) int {
	if topK <= 0 {
		return s.cfg.Retrieval.TopK
	}
	if topK > s.cfg.Retrieval.MaxTopK {
		return s.cfg.Retrieval.MaxTopK
	}
	return topK
}

// assembleContext formats retrieved chunks into numbered source blocks and
// enforces the character budget with a rune-safe cut. Reports whether the
// budget forced a truncation.
func (s *RAGService) assembleContext(scored []model.ScoredChunk) (string, bool) {
	blocks := make([]string, 0, len(scored))
	for i, sc := range scored {
		blocks = append(blocks, fmt.Sprintf("Source %d (%s): %s", i+1, sc.Chunk.Filename, flatten(sc.Chunk.Content)))
	}
	joined := strings.Join(blocks, "\n\n")
	budget := s.cfg.Retrieval.ContextCharBudget
	runes := []rune(joined)
	if len(runes) <= budget {
		return joined, false
	}
	return string(runes[:budget]) + truncationMarker, true
}

func (s *RAGService) citations(scored []model.ScoredChunk) []model.SourceCitation {
	out := make([]model.SourceCitation, 0, len(scored))
	for _, sc := range scored {
		out = append(out, model.SourceCitation{
			DocID:          sc.Chunk.DocID,
			Filename:       sc.Chunk.Filename,
			Content:        preview(sc.Chunk.Content, s.cfg.Retrieval.PreviewChars),
			ChunkIndex:     sc.Chunk.ChunkIndex,
			RelevanceScore: roundTo(sc.Score, s.cfg.Retrieval.ScorePrecision),
		})
	}
	return out
}

// windowHistory takes the last n raw transcript messages and then drops
// anything that is not a user/assistant turn. The window applies to the raw
// transcript, so other roles inside it shrink the forwarded history rather
// than pulling older turns back in.
func windowHistory(history []model.ChatMessage, n int) []model.ChatMessage {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	kept := make([]model.ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == model.RoleUser || msg.Role == model.RoleAssistant {
			kept = append(kept, msg)
		}
	}
	return kept
}

func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func roundTo(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}
