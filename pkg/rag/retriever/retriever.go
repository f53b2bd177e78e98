package retriever

import (
	"context"
	"fmt"
	"log"

	"support-chatbot-be/pkg/embedding"
	"support-chatbot-be/pkg/store"
)

// Config encapsulates retrieval parameters
type Config struct {
	// ChatbotID scopes every search to one tenant.
	ChatbotID string
	// TopK is how many documents the pipeline receives.
	TopK int
	// FetchK is how many candidates are pulled before thresholding; always
	// at least 15 so borderline documents are visible to the filter.
	FetchK int
	// ScoreThreshold drops candidates below this cosine similarity.
	ScoreThreshold float64
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig(chatbotID string) Config {
	return Config{
		ChatbotID:      chatbotID,
		TopK:           8,
		FetchK:         15,
		ScoreThreshold: 0.35,
	}
}

func (c Config) fetchCount() int {
	if c.TopK > c.FetchK {
		return c.TopK
	}
	return c.FetchK
}

// ScoredDocument is a retrieved document with its similarity score.
type ScoredDocument struct {
	Document store.Document
	Score    float64
}

// Retriever embeds the query and searches the vector store. When the
// embedding provider is multimodal and the user attached images, the images
// themselves are embedded instead of the text.
type Retriever struct {
	vectorStore store.VectorStore
	embedder    embedding.Provider
	config      Config
	logger      *log.Logger
}

func NewRetriever(vectorStore store.VectorStore, embedder embedding.Provider, config Config, logger *log.Logger) *Retriever {
	return &Retriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		config:      config,
		logger:      logger,
	}
}

// Retrieve runs the main retrieval path. Embedding failures propagate; the
// chain has no answer without retrieval context. Knowledge ingested from
// chat turns (source chat_conversation) never comes back as context.
func (r *Retriever) Retrieve(ctx context.Context, query string, imageURLs []string) ([]ScoredDocument, error) {
	queryVector, err := r.queryVector(ctx, query, imageURLs)
	if err != nil {
		return nil, err
	}

	filter := store.Filter{
		ChatbotID:     r.config.ChatbotID,
		ExcludeSource: "chat_conversation",
	}

	results, err := r.vectorStore.SimilaritySearchVectorWithScore(ctx, queryVector, r.config.fetchCount(), filter)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	docs := r.filterAndRank(results)
	r.attachUserImages(ctx, docs, imageURLs)
	return docs, nil
}

// SearchByType restricts retrieval to one document type. Store errors come
// back as an empty result; type-scoped search is an augmentation, not a
// dependency.
func (r *Retriever) SearchByType(ctx context.Context, query string, docType string) []ScoredDocument {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Printf("type-scoped search embedding failed: %v", err)
		return nil
	}

	filter := store.Filter{
		ChatbotID:     r.config.ChatbotID,
		Type:          docType,
		ExcludeSource: "chat_conversation",
	}

	results, err := r.vectorStore.SimilaritySearchVectorWithScore(ctx, queryVector, r.config.fetchCount(), filter)
	if err != nil {
		r.logger.Printf("type-scoped search failed for type %q: %v", docType, err)
		return nil
	}
	return r.filterAndRank(results)
}

// SearchByImageSimilarity retrieves documents similar to the user's images.
// Only meaningful with a multimodal embedding provider.
func (r *Retriever) SearchByImageSimilarity(ctx context.Context, imageURLs []string) ([]ScoredDocument, error) {
	imageEmbedder, ok := r.embedder.(embedding.ImageEmbedder)
	if !ok {
		return nil, fmt.Errorf("embedding provider %q cannot embed images", r.embedder.Name())
	}

	payloads, err := r.fetchImagePayloads(ctx, imageURLs)
	if err != nil {
		return nil, err
	}

	vectors, err := imageEmbedder.EmbedImages(ctx, payloads)
	if err != nil {
		return nil, fmt.Errorf("image embedding failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	filter := store.Filter{
		ChatbotID:     r.config.ChatbotID,
		ExcludeSource: "chat_conversation",
	}

	results, err := r.vectorStore.SimilaritySearchVectorWithScore(ctx, vectors[0], r.config.fetchCount(), filter)
	if err != nil {
		return nil, fmt.Errorf("image similarity search failed: %w", err)
	}
	return r.filterAndRank(results), nil
}

func (r *Retriever) queryVector(ctx context.Context, query string, imageURLs []string) ([]float32, error) {
	imageEmbedder, multimodal := r.embedder.(embedding.ImageEmbedder)

	if multimodal && len(imageURLs) > 0 {
		payloads, err := r.fetchImagePayloads(ctx, imageURLs)
		if err != nil {
			return nil, err
		}
		vectors, err := imageEmbedder.EmbedImages(ctx, payloads)
		if err != nil {
			return nil, fmt.Errorf("image embedding failed: %w", err)
		}
		if len(vectors) > 0 {
			return vectors[0], nil
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	return vector, nil
}

func (r *Retriever) fetchImagePayloads(ctx context.Context, imageURLs []string) ([]string, error) {
	payloads := make([]string, 0, len(imageURLs))
	for _, url := range imageURLs {
		payload, err := embedding.FetchImageBase64(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("image fetch for embedding failed: %w", err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func (r *Retriever) filterAndRank(results []store.SearchResult) []ScoredDocument {
	var docs []ScoredDocument
	for _, res := range results {
		if res.Score < r.config.ScoreThreshold {
			continue
		}
		docs = append(docs, ScoredDocument{Document: res.Document, Score: res.Score})
		if len(docs) >= r.config.TopK {
			break
		}
	}
	return docs
}

// attachUserImages rides the user's uploaded images along on the retrieved
// metadata so the enhanced-vision pass can see them. Fetch failures only log;
// the documents are still useful without the payloads.
func (r *Retriever) attachUserImages(ctx context.Context, docs []ScoredDocument, imageURLs []string) {
	if len(imageURLs) == 0 || len(docs) == 0 {
		return
	}

	var payloads []string
	for _, url := range imageURLs {
		payload, err := embedding.FetchImageBase64(ctx, url)
		if err != nil {
			r.logger.Printf("user image conversion failed for %s: %v", url, err)
			continue
		}
		payloads = append(payloads, payload)
	}
	if len(payloads) == 0 {
		return
	}

	for i := range docs {
		if docs[i].Document.Metadata == nil {
			docs[i].Document.Metadata = make(map[string]interface{})
		}
		docs[i].Document.Metadata["user_image_payloads"] = payloads
	}
}
