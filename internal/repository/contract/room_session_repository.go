package contract

import (
	"context"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"
)

type RoomSessionRepository interface {
	Create(ctx context.Context, session *entity.RoomSession) error
	Update(ctx context.Context, session *entity.RoomSession) error
	DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RoomSession, error)
}
