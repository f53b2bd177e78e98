package factory

import (
	"context"
	"fmt"

	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/embedding/jina"
)

// Params carries everything provider construction needs. Credentials travel
// here per call site rather than through ambient process state.
type Params struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

func NewEmbeddingProvider(providerType string, params Params) (embedding.Provider, error) {
	var provider embedding.Provider
	switch providerType {
	case "openai":
		provider = embedding.NewOpenAIProvider(params.APIKey, params.Model, params.Dimensions)
	case "cohere":
		provider = embedding.NewCohereProvider(params.APIKey, params.Model, params.Dimensions)
	case "huggingface":
		provider = embedding.NewHuggingFaceProvider(params.APIKey, params.BaseURL, params.Model, params.Dimensions)
	case "jina":
		provider = jina.NewJinaProvider(params.APIKey, params.Model, params.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
	return withDimensionCheck(provider, params.Dimensions), nil
}

// withDimensionCheck enforces the configured dimensionality lazily: the
// first response whose vectors disagree with the configuration errors out
// instead of poisoning the vector store. A zero configuration disables the
// check.
func withDimensionCheck(provider embedding.Provider, want int) embedding.Provider {
	if want <= 0 {
		return provider
	}
	checked := &checkedProvider{Provider: provider, want: want}
	if img, ok := provider.(embedding.ImageEmbedder); ok {
		return &checkedImageProvider{checkedProvider: checked, images: img}
	}
	return checked
}

type checkedProvider struct {
	embedding.Provider
	want int
}

func (p *checkedProvider) check(got int) error {
	if got != p.want {
		return fmt.Errorf("embedding provider %q returned %d dimensions, configured for %d", p.Name(), got, p.want)
	}
	return nil
}

func (p *checkedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.Provider.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.check(len(vector)); err != nil {
		return nil, err
	}
	return vector, nil
}

func (p *checkedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.Provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, vector := range vectors {
		if err := p.check(len(vector)); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

type checkedImageProvider struct {
	*checkedProvider
	images embedding.ImageEmbedder
}

func (p *checkedImageProvider) EmbedImages(ctx context.Context, imagePayloads []string) ([][]float32, error) {
	vectors, err := p.images.EmbedImages(ctx, imagePayloads)
	if err != nil {
		return nil, err
	}
	for _, vector := range vectors {
		if err := p.check(len(vector)); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// SupportsImages reports whether the provider can embed images into the text
// vector space.
func SupportsImages(p embedding.Provider) bool {
	_, ok := p.(embedding.ImageEmbedder)
	return ok
}
