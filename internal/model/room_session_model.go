package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RoomSession struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatbotId string         `gorm:"type:text;not null;index"`
	RoomId    string         `gorm:"type:text;not null;uniqueIndex"`
	Stage     int            `gorm:"not null;default:1"`
	Header    string         `gorm:"type:text"`
	Text      string         `gorm:"type:text"`
	Images    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (RoomSession) TableName() string {
	return "room_sessions"
}
