package mapper

import (
	"encoding/json"
	"time"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/model"

	"gorm.io/gorm"
)

type ChatHistoryMapper struct{}

func NewChatHistoryMapper() *ChatHistoryMapper {
	return &ChatHistoryMapper{}
}

func (m *ChatHistoryMapper) ToEntity(e *model.ChatHistory) *entity.ChatHistory {
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

	var conversation []entity.ChatTurn
	if len(e.Conversation) > 0 {
		// Corrupt rows degrade to an empty transcript rather than failing the read.
		_ = json.Unmarshal(e.Conversation, &conversation)
	}

	return &entity.ChatHistory{
		Id:                e.Id,
		ChatbotId:         e.ChatbotId,
		RoomId:            e.RoomId,
		UserEmail:         e.UserEmail,
		ConversationTitle: e.ConversationTitle,
		Conversation:      conversation,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
		IsDeleted:         e.DeletedAt.Valid,
	}
}

func (m *ChatHistoryMapper) ToModel(e *entity.ChatHistory) *model.ChatHistory {
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

	conversation, _ := json.Marshal(e.Conversation)

	return &model.ChatHistory{
		Id:                e.Id,
		ChatbotId:         e.ChatbotId,
		RoomId:            e.RoomId,
		UserEmail:         e.UserEmail,
		ConversationTitle: e.ConversationTitle,
		Conversation:      conversation,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         updatedAt,
		DeletedAt:         deletedAt,
	}
}

func (m *ChatHistoryMapper) ToEntities(histories []*model.ChatHistory) []*entity.ChatHistory {
	entities := make([]*entity.ChatHistory, len(histories))
	for i, e := range histories {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
