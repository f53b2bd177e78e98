package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TurnTypeUser = "userMessage"
	TurnTypeAPI  = "apiMessage"
)

// SourceDoc is a retrieved document as stored alongside an answer.
type SourceDoc struct {
	PageContent string                 `json:"pageContent"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Score       float64                `json:"score,omitempty"`
}

// ChatTurn is one message of a conversation transcript.
type ChatTurn struct {
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	IsComplete bool        `json:"isComplete"`
	ImageUrls  []string    `json:"imageUrls,omitempty"`
	QaId       string      `json:"qaId,omitempty"`
	SourceDocs []SourceDoc `json:"sourceDocs,omitempty"`
}

type ChatHistory struct {
	Id                uuid.UUID
	ChatbotId         string
	RoomId            string
	UserEmail         string
	ConversationTitle string
	Conversation      []ChatTurn
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	DeletedAt         *time.Time
	IsDeleted         bool
}
