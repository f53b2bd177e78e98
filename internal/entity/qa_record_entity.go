package entity

import (
	"time"

	"github.com/google/uuid"
)

// QARecord is the audit row written for every answered question. QaId is the
// public identifier handed to the frontend for feedback.
type QARecord struct {
	Id                     uuid.UUID
	QaId                   uuid.UUID
	ChatbotId              string
	RoomId                 string
	Question               string
	Answer                 string
	ContextualizedQuestion string
	Sources                []SourceDoc
	ImageUrls              []string
	Language               string
	ModelType              string
	Thumb                  *string
	Comment                *string
	CreatedAt              time.Time
	UpdatedAt              *time.Time
}

const (
	ThumbUp   = "up"
	ThumbDown = "down"
)

const (
	ModelTypeRAG            = "rag"
	ModelTypeVision         = "vision"
	ModelTypeEnhancedVision = "enhanced_vision"
)
