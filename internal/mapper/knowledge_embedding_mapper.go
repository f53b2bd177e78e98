package mapper

import (
	"encoding/json"
	"time"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeEmbeddingMapper struct{}

func NewKnowledgeEmbeddingMapper() *KnowledgeEmbeddingMapper {
	return &KnowledgeEmbeddingMapper{}
}

func (m *KnowledgeEmbeddingMapper) ToEntity(e *model.KnowledgeEmbedding) *entity.KnowledgeEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return &entity.KnowledgeEmbedding{
		Id:             e.Id,
		DocId:          e.DocId,
		ChatbotId:      e.ChatbotId,
		Type:           e.Type,
		Source:         e.Source,
		IsPublic:       e.IsPublic,
		Document:       e.Document,
		Metadata:       metadata,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *KnowledgeEmbeddingMapper) ToModel(e *entity.KnowledgeEmbedding) *model.KnowledgeEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	metadata, _ := json.Marshal(e.Metadata)

	return &model.KnowledgeEmbedding{
		Id:             e.Id,
		DocId:          e.DocId,
		ChatbotId:      e.ChatbotId,
		Type:           e.Type,
		Source:         e.Source,
		IsPublic:       e.IsPublic,
		Document:       e.Document,
		Metadata:       metadata,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *KnowledgeEmbeddingMapper) ToEntities(embeddings []*model.KnowledgeEmbedding) []*entity.KnowledgeEmbedding {
	entities := make([]*entity.KnowledgeEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
