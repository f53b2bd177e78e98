package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatHistory struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatbotId         string         `gorm:"type:text;not null;index"` // Tenant scoping
	RoomId            string         `gorm:"type:text;not null;uniqueIndex"`
	UserEmail         string         `gorm:"type:text"`
	ConversationTitle string         `gorm:"type:text"`
	Conversation      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (ChatHistory) TableName() string {
	return "chat_histories"
}
