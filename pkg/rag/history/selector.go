package history

import (
	"context"
	"fmt"
	"math"

	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/llm"
)

// Options controls how much and which history reaches the prompt.
type Options struct {
	// MaxTurns is the number of question/answer pairs to keep.
	MaxTurns int
	// UseSemanticSearch ranks past questions by relevance to the current
	// query instead of taking the most recent ones.
	UseSemanticSearch bool
	// RecencyWeight blends recency into the semantic score:
	// blended = similarity*(1-w) + recency*w.
	RecencyWeight float64
}

func DefaultOptions() Options {
	return Options{
		MaxTurns:          3,
		UseSemanticSearch: false,
		RecencyWeight:     0.7,
	}
}

// Selector trims conversation history before prompt assembly. Long
// transcripts otherwise crowd out the retrieved context.
type Selector struct {
	embedder embedding.Provider
}

func NewSelector(embedder embedding.Provider) *Selector {
	return &Selector{embedder: embedder}
}

// Select returns the subset of history worth keeping for this query.
// Histories of two messages or fewer pass through untouched. Semantic
// selection falls back to recency if embedding fails.
func (s *Selector) Select(ctx context.Context, history []llm.Message, query string, opts Options) []llm.Message {
	if len(history) <= 2 {
		return history
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultOptions().MaxTurns
	}

	if !opts.UseSemanticSearch || s.embedder == nil {
		return recent(history, opts.MaxTurns)
	}

	selected, err := s.selectSemantic(ctx, history, query, opts)
	if err != nil {
		return recent(history, opts.MaxTurns)
	}
	return selected
}

// recent keeps the last MaxTurns question/answer pairs.
func recent(history []llm.Message, maxTurns int) []llm.Message {
	keep := maxTurns * 2
	if len(history) <= keep {
		return history
	}
	return history[len(history)-keep:]
}

func (s *Selector) selectSemantic(ctx context.Context, history []llm.Message, query string, opts Options) ([]llm.Message, error) {
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	// Score every user message; its answer rides along if selected.
	type scoredTurn struct {
		index int
		score float64
	}
	var turns []scoredTurn

	var lastUserIdx = -1
	for i, msg := range history {
		if msg.Role != "user" {
			continue
		}
		lastUserIdx = i

		msgVec, err := s.embedder.EmbedQuery(ctx, msg.Content)
		if err != nil {
			return nil, err
		}
		similarity, err := CosineSimilarity(queryVec, msgVec)
		if err != nil {
			return nil, err
		}

		recency := 0.0
		if len(history) > 1 {
			recency = float64(i) / float64(len(history)-1)
		}
		blended := similarity*(1-opts.RecencyWeight) + recency*opts.RecencyWeight
		turns = append(turns, scoredTurn{index: i, score: blended})
	}

	if len(turns) == 0 {
		return recent(history, opts.MaxTurns), nil
	}

	// Top MaxTurns by blended score; the newest turn always survives.
	selected := make(map[int]bool)
	for n := 0; n < opts.MaxTurns && n < len(turns); n++ {
		best := -1
		for i, t := range turns {
			if selected[t.index] {
				continue
			}
			if best == -1 || t.score > turns[best].score {
				best = i
			}
		}
		if best == -1 {
			break
		}
		selected[turns[best].index] = true
	}
	if lastUserIdx >= 0 {
		selected[lastUserIdx] = true
	}

	var result []llm.Message
	for i, msg := range history {
		if selected[i] {
			result = append(result, msg)
			// Keep the answer belonging to the selected question.
			if i+1 < len(history) && history[i+1].Role != "user" {
				result = append(result, history[i+1])
			}
		}
	}
	return result, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are an error; a zero vector scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
