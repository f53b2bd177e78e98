package factory

import (
	"context"
	"testing"

	"support-chatbot-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	width int
}

func (s *stubProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.width), nil
}

func (s *stubProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.width)
	}
	return out, nil
}

func (s *stubProvider) Dimensions() int { return s.width }
func (s *stubProvider) Name() string    { return "stub" }

type stubImageProvider struct {
	stubProvider
}

func (s *stubImageProvider) EmbedImages(ctx context.Context, imagesB64 []string) ([][]float32, error) {
	out := make([][]float32, len(imagesB64))
	for i := range imagesB64 {
		out[i] = make([]float32, s.width)
	}
	return out, nil
}

func TestDimensionCheckPassesOnMatch(t *testing.T) {
	p := withDimensionCheck(&stubProvider{width: 4}, 4)

	vector, err := p.EmbedQuery(context.Background(), "query")

	require.NoError(t, err)
	assert.Len(t, vector, 4)
}

func TestDimensionCheckFailsOnFirstMismatch(t *testing.T) {
	p := withDimensionCheck(&stubProvider{width: 3}, 1024)

	_, err := p.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")

	_, err = p.EmbedDocuments(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestDimensionCheckDisabledWithoutConfiguration(t *testing.T) {
	inner := &stubProvider{width: 3}

	p := withDimensionCheck(inner, 0)

	assert.Same(t, inner, p)
}

func TestDimensionCheckPreservesImageCapability(t *testing.T) {
	p := withDimensionCheck(&stubImageProvider{stubProvider{width: 4}}, 4)

	img, ok := p.(embedding.ImageEmbedder)
	require.True(t, ok, "wrapped multimodal provider must still embed images")

	vectors, err := img.EmbedImages(context.Background(), []string{"data:image/png;base64,AAAA"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 4)

	mismatched := withDimensionCheck(&stubImageProvider{stubProvider{width: 2}}, 4)
	_, err = mismatched.(embedding.ImageEmbedder).EmbedImages(context.Background(), []string{"data:image/png;base64,AAAA"})
	assert.Error(t, err)
}

func TestSupportsImages(t *testing.T) {
	assert.False(t, SupportsImages(withDimensionCheck(&stubProvider{width: 4}, 4)))
	assert.True(t, SupportsImages(withDimensionCheck(&stubImageProvider{stubProvider{width: 4}}, 4)))
}
