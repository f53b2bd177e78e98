package mapper

import (
	"encoding/json"
	"time"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/model"
)

type QARecordMapper struct{}

func NewQARecordMapper() *QARecordMapper {
	return &QARecordMapper{}
}

func (m *QARecordMapper) ToEntity(e *model.QARecord) *entity.QARecord {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var sources []entity.SourceDoc
	if len(e.Sources) > 0 {
		_ = json.Unmarshal(e.Sources, &sources)
	}

	var imageUrls []string
	if len(e.ImageUrls) > 0 {
		_ = json.Unmarshal(e.ImageUrls, &imageUrls)
	}

	return &entity.QARecord{
		Id:                     e.Id,
		QaId:                   e.QaId,
		ChatbotId:              e.ChatbotId,
		RoomId:                 e.RoomId,
		Question:               e.Question,
		Answer:                 e.Answer,
		ContextualizedQuestion: e.ContextualizedQuestion,
		Sources:                sources,
		ImageUrls:              imageUrls,
		Language:               e.Language,
		ModelType:              e.ModelType,
		Thumb:                  e.Thumb,
		Comment:                e.Comment,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}

func (m *QARecordMapper) ToModel(e *entity.QARecord) *model.QARecord {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	sources, _ := json.Marshal(e.Sources)
	imageUrls, _ := json.Marshal(e.ImageUrls)

	return &model.QARecord{
		Id:                     e.Id,
		QaId:                   e.QaId,
		ChatbotId:              e.ChatbotId,
		RoomId:                 e.RoomId,
		Question:               e.Question,
		Answer:                 e.Answer,
		ContextualizedQuestion: e.ContextualizedQuestion,
		Sources:                sources,
		ImageUrls:              imageUrls,
		Language:               e.Language,
		ModelType:              e.ModelType,
		Thumb:                  e.Thumb,
		Comment:                e.Comment,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}
