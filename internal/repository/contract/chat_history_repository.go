package contract

import (
	"context"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"
)

type ChatHistoryRepository interface {
	Create(ctx context.Context, history *entity.ChatHistory) error
	Update(ctx context.Context, history *entity.ChatHistory) error
	DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatHistory, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatHistory, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
