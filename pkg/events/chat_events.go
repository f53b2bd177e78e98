package events

import "time"

const (
	TypeChatAnswered       = "chat.answered"
	TypeEmbeddingCompleted = "embedding.completed"
	TypeFeedbackReceived   = "feedback.received"
)

// NewChatAnsweredEvent fires after a question has been answered and persisted.
func NewChatAnsweredEvent(roomID, qaID, language, modelType string) Event {
	return BaseEvent{
		Type: TypeChatAnswered,
		Data: map[string]interface{}{
			"room_id":    roomID,
			"qa_id":      qaID,
			"language":   language,
			"model_type": modelType,
		},
		OccurredAt: time.Now(),
	}
}

// NewEmbeddingCompletedEvent fires when an embedding session or an ingestion
// batch lands a document in the vector store.
func NewEmbeddingCompletedEvent(roomID, documentID string) Event {
	return BaseEvent{
		Type: TypeEmbeddingCompleted,
		Data: map[string]interface{}{
			"room_id":     roomID,
			"document_id": documentID,
		},
		OccurredAt: time.Now(),
	}
}

// NewFeedbackReceivedEvent fires on every feedback submission.
func NewFeedbackReceivedEvent(qaID string, thumb string) Event {
	return BaseEvent{
		Type: TypeFeedbackReceived,
		Data: map[string]interface{}{
			"qa_id": qaID,
			"thumb": thumb,
		},
		OccurredAt: time.Now(),
	}
}
