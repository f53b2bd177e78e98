package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEmbedding is one vector-indexed document of the knowledge base.
// DocId is the stable external identifier used for upserts; rows ingested
// from chat carry source "chat_conversation" and are excluded from retrieval.
type KnowledgeEmbedding struct {
	Id             uuid.UUID
	DocId          string
	ChatbotId      string
	Type           string
	Source         string
	IsPublic       *bool
	Document       string
	Metadata       map[string]interface{}
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

const SourceChatConversation = "chat_conversation"
