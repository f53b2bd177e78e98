package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QARecord struct {
	Id                     uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QaId                   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	ChatbotId              string         `gorm:"type:text;not null;index"`
	RoomId                 string         `gorm:"type:text;not null;index"`
	Question               string         `gorm:"type:text;not null"`
	Answer                 string         `gorm:"type:text"`
	ContextualizedQuestion string         `gorm:"type:text"`
	Sources                datatypes.JSON `gorm:"type:jsonb"`
	ImageUrls              datatypes.JSON `gorm:"type:jsonb"`
	Language               string         `gorm:"type:text"`
	ModelType              string         `gorm:"type:text"`
	Thumb                  *string        `gorm:"type:text"`
	Comment                *string        `gorm:"type:text"`
	CreatedAt              time.Time      `gorm:"autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime"`
}

func (QARecord) TableName() string {
	return "qa_records"
}
