package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByChatbotId scopes a query to one tenant. Every chat query carries it.
type ByChatbotId struct {
	ChatbotId string
}

func (s ByChatbotId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chatbot_id = ?", s.ChatbotId)
}

// ByRoomId filters by conversation room
type ByRoomId struct {
	RoomId string
}

func (s ByRoomId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("room_id = ?", s.RoomId)
}

// ByQaId filters QA records by their public identifier
type ByQaId struct {
	QaId uuid.UUID
}

func (s ByQaId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("qa_id = ?", s.QaId)
}

// ByUserEmail filters chat histories by owner
type ByUserEmail struct {
	Email string
}

func (s ByUserEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_email = ?", s.Email)
}

// ByDocId filters knowledge embeddings by their external document id
type ByDocId struct {
	DocId string
}

func (s ByDocId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id = ?", s.DocId)
}
