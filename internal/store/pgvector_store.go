package store

import (
	"context"
	"fmt"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/contract"
	pkgstore "support-chatbot-be/pkg/store"
)

// PgVectorStore adapts the knowledge embedding repository to the generic
// VectorStore contract the retrieval pipeline works against.
type PgVectorStore struct {
	repo contract.KnowledgeEmbeddingRepository
}

var _ pkgstore.VectorStore = &PgVectorStore{}

func NewPgVectorStore(repo contract.KnowledgeEmbeddingRepository) *PgVectorStore {
	return &PgVectorStore{repo: repo}
}

func (s *PgVectorStore) SimilaritySearchVectorWithScore(ctx context.Context, vector []float32, k int, filter pkgstore.Filter) ([]pkgstore.SearchResult, error) {
	// Thresholding is the caller's concern; -1 disables it at the SQL level.
	scored, err := s.repo.SearchSimilarWithScore(ctx, vector, k, -1, contract.VectorSearchFilter{
		ChatbotId:      filter.ChatbotID,
		Type:           filter.Type,
		ExcludeSource:  filter.ExcludeSource,
		IncludePrivate: filter.IncludePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]pkgstore.SearchResult, len(scored))
	for i, sc := range scored {
		results[i] = pkgstore.SearchResult{
			Document: toDocument(sc.Embedding),
			Score:    sc.Similarity,
		}
	}
	return results, nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, id string, vector []float32, doc pkgstore.Document) error {
	e := &entity.KnowledgeEmbedding{
		DocId:          id,
		Document:       doc.Content,
		Metadata:       doc.Metadata,
		EmbeddingValue: vector,
	}

	// Columnar fields ride in the metadata map under well-known keys.
	if v, ok := doc.Metadata["chatbotId"].(string); ok {
		e.ChatbotId = v
	}
	if v, ok := doc.Metadata["type"].(string); ok {
		e.Type = v
	}
	if v, ok := doc.Metadata["source"].(string); ok {
		e.Source = v
	}
	if v, ok := doc.Metadata["isPublic"].(bool); ok {
		e.IsPublic = &v
	}

	if err := s.repo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("vector upsert failed: %w", err)
	}
	return nil
}

func toDocument(e *entity.KnowledgeEmbedding) pkgstore.Document {
	metadata := make(map[string]interface{}, len(e.Metadata)+3)
	for k, v := range e.Metadata {
		metadata[k] = v
	}
	metadata["type"] = e.Type
	if e.Source != "" {
		metadata["source"] = e.Source
	}
	if e.IsPublic != nil {
		metadata["isPublic"] = *e.IsPublic
	}

	return pkgstore.Document{
		ID:       e.DocId,
		Content:  e.Document,
		Metadata: metadata,
	}
}
