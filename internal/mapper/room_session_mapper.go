package mapper

import (
	"encoding/json"
	"time"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/model"
)

type RoomSessionMapper struct{}

func NewRoomSessionMapper() *RoomSessionMapper {
	return &RoomSessionMapper{}
}

func (m *RoomSessionMapper) ToEntity(e *model.RoomSession) *entity.RoomSession {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var images []entity.SessionImage
	if len(e.Images) > 0 {
		_ = json.Unmarshal(e.Images, &images)
	}

	return &entity.RoomSession{
		Id:        e.Id,
		ChatbotId: e.ChatbotId,
		RoomId:    e.RoomId,
		Stage:     e.Stage,
		Header:    e.Header,
		Text:      e.Text,
		Images:    images,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *RoomSessionMapper) ToModel(e *entity.RoomSession) *model.RoomSession {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	images, _ := json.Marshal(e.Images)

	return &model.RoomSession{
		Id:        e.Id,
		ChatbotId: e.ChatbotId,
		RoomId:    e.RoomId,
		Stage:     e.Stage,
		Header:    e.Header,
		Text:      e.Text,
		Images:    images,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
