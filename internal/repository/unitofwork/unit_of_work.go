package unitofwork

import (
	"context"

	"support-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatHistoryRepository() contract.ChatHistoryRepository
	QARecordRepository() contract.QARecordRepository
	RoomSessionRepository() contract.RoomSessionRepository
	KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository
}
