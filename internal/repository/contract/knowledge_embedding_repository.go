package contract

import (
	"context"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredKnowledgeEmbedding pairs a row with its cosine similarity to the
// query vector.
type ScoredKnowledgeEmbedding struct {
	Embedding  *entity.KnowledgeEmbedding
	Similarity float64
}

// VectorSearchFilter narrows similarity searches. ChatbotId is mandatory;
// the zero value of the rest means "no restriction" except visibility, which
// defaults to public-or-unset.
type VectorSearchFilter struct {
	ChatbotId      string
	Type           string
	ExcludeSource  string
	IncludePrivate bool
}

type KnowledgeEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.KnowledgeEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error
	Upsert(ctx context.Context, embedding *entity.KnowledgeEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, filter VectorSearchFilter) ([]*ScoredKnowledgeEmbedding, error)
}
