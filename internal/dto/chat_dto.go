package dto

import (
	"time"

	"support-chatbot-be/internal/entity"
)

type ChatStreamRequest struct {
	ChatbotId string   `json:"chatbot_id"`
	RoomId    string   `json:"room_id" validate:"required"`
	Question  string   `json:"question" validate:"required"`
	UserEmail string   `json:"user_email" validate:"omitempty,email"`
	ImageUrls []string `json:"image_urls"`
}

// ChatCompleteData is the payload of the terminal "complete" stream event.
type ChatCompleteData struct {
	Answer            string             `json:"answer"`
	QaId              string             `json:"qa_id"`
	ConversationTitle string             `json:"conversation_title,omitempty"`
	Language          string             `json:"language"`
	ModelType         string             `json:"model_type"`
	Sources           []entity.SourceDoc `json:"sources,omitempty"`
}

type ChatHistoryResponse struct {
	RoomId            string            `json:"room_id"`
	ConversationTitle string            `json:"conversation_title"`
	Conversation      []entity.ChatTurn `json:"conversation"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         *time.Time        `json:"updated_at"`
}

type LatestRoomResponse struct {
	RoomId            string     `json:"room_id"`
	ConversationTitle string     `json:"conversation_title"`
	UpdatedAt         *time.Time `json:"updated_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

type FeedbackRequest struct {
	QaId    string `json:"qa_id" validate:"required,uuid4"`
	Thumb   string `json:"thumb" validate:"required,oneof=up down"`
	Comment string `json:"comment"`
}

type FeedbackResponse struct {
	QaId string `json:"qa_id"`
}
