package embedding

import "context"

// Provider defines the interface for generating text embeddings
type Provider interface {
	// EmbedQuery embeds a single retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of documents for ingestion.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the width of the vectors this provider returns.
	Dimensions() int

	// Name identifies the provider ("openai", "cohere", ...).
	Name() string
}

// ImageEmbedder is implemented by multimodal providers that can place images
// in the same vector space as text.
type ImageEmbedder interface {
	// EmbedImages embeds base64 data URIs.
	EmbedImages(ctx context.Context, imagesB64 []string) ([][]float32, error)
}
