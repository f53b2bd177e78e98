package history

import (
	"context"
	"testing"

	"support-chatbot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 1}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) Name() string    { return "fake" }

func turn(question, answer string) []llm.Message {
	return []llm.Message{
		{Role: "user", Content: question},
		{Role: "assistant", Content: answer},
	}
}

func TestSelectShortHistoryPassesThrough(t *testing.T) {
	s := NewSelector(nil)
	history := turn("hello", "hi there")

	selected := s.Select(context.Background(), history, "anything", DefaultOptions())

	assert.Equal(t, history, selected)
}

func TestSelectRecencyKeepsLastTurns(t *testing.T) {
	s := NewSelector(nil)

	var history []llm.Message
	history = append(history, turn("q1", "a1")...)
	history = append(history, turn("q2", "a2")...)
	history = append(history, turn("q3", "a3")...)
	history = append(history, turn("q4", "a4")...)

	opts := DefaultOptions()
	opts.MaxTurns = 2

	selected := s.Select(context.Background(), history, "anything", opts)

	assert.Len(t, selected, 4)
	assert.Equal(t, "q3", selected[0].Content)
	assert.Equal(t, "a4", selected[3].Content)
}

func TestSelectZeroMaxTurnsFallsBackToDefault(t *testing.T) {
	s := NewSelector(nil)

	var history []llm.Message
	for i := 0; i < 10; i++ {
		history = append(history, turn("q", "a")...)
	}

	selected := s.Select(context.Background(), history, "anything", Options{MaxTurns: 0})

	assert.Len(t, selected, DefaultOptions().MaxTurns*2)
}

func TestSelectSemanticPrefersRelevantTurns(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"how do I reset my password": {1, 0},
		"reset password steps":       {1, 0},  // relevant
		"what is the weather":        {0, 1},  // irrelevant
		"tell me a joke":             {0, 1},  // irrelevant
	}}
	s := NewSelector(embedder)

	var history []llm.Message
	history = append(history, turn("reset password steps", "click forgot password")...)
	history = append(history, turn("what is the weather", "sunny")...)
	history = append(history, turn("tell me a joke", "knock knock")...)

	opts := Options{MaxTurns: 1, UseSemanticSearch: true, RecencyWeight: 0}

	selected := s.Select(context.Background(), history, "how do I reset my password", opts)

	contents := make([]string, 0, len(selected))
	for _, m := range selected {
		contents = append(contents, m.Content)
	}
	assert.Contains(t, contents, "reset password steps")
	assert.Contains(t, contents, "click forgot password")
	// The newest user turn always survives.
	assert.Contains(t, contents, "tell me a joke")
}

func TestSelectSemanticFallsBackOnEmbeddingError(t *testing.T) {
	s := NewSelector(&fakeEmbedder{err: assert.AnError})

	var history []llm.Message
	history = append(history, turn("q1", "a1")...)
	history = append(history, turn("q2", "a2")...)
	history = append(history, turn("q3", "a3")...)

	opts := Options{MaxTurns: 2, UseSemanticSearch: true, RecencyWeight: 0.5}

	selected := s.Select(context.Background(), history, "query", opts)

	assert.Len(t, selected, 4)
	assert.Equal(t, "q2", selected[0].Content)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
		wantErr  bool
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, expected: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}
