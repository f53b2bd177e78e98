package implementation

import (
	"context"
	"errors"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/mapper"
	"support-chatbot-be/internal/model"
	"support-chatbot-be/internal/repository/contract"
	"support-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeEmbeddingMapper
}

func NewKnowledgeEmbeddingRepository(db *gorm.DB) contract.KnowledgeEmbeddingRepository {
	return &KnowledgeEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeEmbeddingMapper(),
	}
}

func (r *KnowledgeEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.KnowledgeEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.KnowledgeEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// Upsert replaces the row carrying the same doc_id, keeping the external
// identifier stable across re-embeddings.
func (r *KnowledgeEmbeddingRepositoryImpl) Upsert(ctx context.Context, embedding *entity.KnowledgeEmbedding) error {
	m := r.mapper.ToModel(embedding)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chatbot_id", "type", "source", "is_public", "document", "metadata", "embedding_value", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeEmbedding{}, id).Error
}

func (r *KnowledgeEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEmbedding, error) {
	var m model.KnowledgeEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error) {
	var models []*model.KnowledgeEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *KnowledgeEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns embeddings with similarity scores, filtered by threshold.
// Cosine distance in pgvector is: 1 - cosine_similarity
// So we compute: 1 - (embedding_value <=> query_vector) = cosine_similarity
func (r *KnowledgeEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, filter contract.VectorSearchFilter) ([]*contract.ScoredKnowledgeEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KnowledgeEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("knowledge_embeddings").
		Select("knowledge_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("chatbot_id = ?", filter.ChatbotId).
		Where("deleted_at IS NULL")

	if !filter.IncludePrivate {
		// Visibility: public rows plus rows predating the flag.
		query = query.Where("is_public IS NULL OR is_public = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ExcludeSource != "" {
		query = query.Where("source IS NULL OR source <> ?", filter.ExcludeSource)
	}

	err := query.
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKnowledgeEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredKnowledgeEmbedding{
			Embedding:  r.mapper.ToEntity(&res.KnowledgeEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
