package service

import (
	"context"
	"time"

	"support-chatbot-be/internal/constant"
	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/pkg/llm"

	"github.com/google/uuid"
)

// ExchangeParams records one question/answer pair on a room's transcript.
type ExchangeParams struct {
	ChatbotId string
	RoomId    string
	UserEmail string
	Title     string
	UserTurn  entity.ChatTurn
	ApiTurn   entity.ChatTurn
}

type IMemoryService interface {
	Load(ctx context.Context, chatbotId, roomId string) (*entity.ChatHistory, error)
	Transcript(history *entity.ChatHistory) []llm.Message
	LastImageContext(history *entity.ChatHistory) ([]string, string)
	RecordExchange(ctx context.Context, history *entity.ChatHistory, params ExchangeParams) error
}

type memoryService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMemoryService(uowFactory unitofwork.RepositoryFactory) IMemoryService {
	return &memoryService{
		uowFactory: uowFactory,
	}
}

// Load fetches the room transcript. Returns nil when the room has no history
// yet, which also marks the incoming message as the first one.
func (s *memoryService) Load(ctx context.Context, chatbotId, roomId string) (*entity.ChatHistory, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatHistoryRepository().FindOne(ctx,
		specification.ByChatbotId{ChatbotId: chatbotId},
		specification.ByRoomId{RoomId: roomId},
	)
}

// Transcript converts the stored conversation into model messages. The
// greeting and incomplete turns are display artifacts and never reach the
// model.
func (s *memoryService) Transcript(history *entity.ChatHistory) []llm.Message {
	if history == nil {
		return nil
	}

	var messages []llm.Message
	for _, turn := range history.Conversation {
		if !turn.IsComplete {
			continue
		}
		if turn.Type == entity.TurnTypeAPI && turn.Message == constant.GreetingMessage {
			continue
		}

		role := constant.ChatRoleAssistant
		if turn.Type == entity.TurnTypeUser {
			role = constant.ChatRoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Message})
	}
	return messages
}

// LastImageContext finds the most recent user turn that carried images and
// returns its urls together with the QaId of the answer that followed. The
// QaId lets the caller recover the stored image description.
func (s *memoryService) LastImageContext(history *entity.ChatHistory) ([]string, string) {
	if history == nil {
		return nil, ""
	}

	conv := history.Conversation
	for i := len(conv) - 1; i >= 0; i-- {
		turn := conv[i]
		if turn.Type != entity.TurnTypeUser || len(turn.ImageUrls) == 0 {
			continue
		}
		qaId := ""
		if i+1 < len(conv) && conv[i+1].Type == entity.TurnTypeAPI {
			qaId = conv[i+1].QaId
		}
		return turn.ImageUrls, qaId
	}
	return nil, ""
}

// RecordExchange appends the pair to an existing transcript or creates a new
// one opened by the greeting. The conversation title is set once and kept.
func (s *memoryService) RecordExchange(ctx context.Context, history *entity.ChatHistory, params ExchangeParams) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ChatHistoryRepository()

	if history == nil {
		now := time.Now()
		fresh := &entity.ChatHistory{
			Id:                uuid.New(),
			ChatbotId:         params.ChatbotId,
			RoomId:            params.RoomId,
			UserEmail:         params.UserEmail,
			ConversationTitle: params.Title,
			Conversation: []entity.ChatTurn{
				{Type: entity.TurnTypeAPI, Message: constant.GreetingMessage, IsComplete: true},
				params.UserTurn,
				params.ApiTurn,
			},
			CreatedAt: now,
		}
		return repo.Create(ctx, fresh)
	}

	history.Conversation = append(history.Conversation, params.UserTurn, params.ApiTurn)
	if history.ConversationTitle == "" && params.Title != "" {
		history.ConversationTitle = params.Title
	}
	if params.UserEmail != "" && history.UserEmail == "" {
		history.UserEmail = params.UserEmail
	}
	return repo.Update(ctx, history)
}
