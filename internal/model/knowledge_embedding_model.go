package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocId          string          `gorm:"type:text;not null;uniqueIndex"` // External id, upsert key
	ChatbotId      string          `gorm:"type:text;not null;index"`
	Type           string          `gorm:"type:text;index"`
	Source         string          `gorm:"type:text;index"`
	IsPublic       *bool           `gorm:""`
	Document       string          `gorm:"type:text"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(3072)"` // text-embedding-3-large width
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (KnowledgeEmbedding) TableName() string {
	return "knowledge_embeddings"
}
