package unitofwork

import (
	"context"
	"fmt"

	"support-chatbot-be/internal/repository/contract"
	"support-chatbot-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // The active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ChatHistoryRepository() contract.ChatHistoryRepository {
	return implementation.NewChatHistoryRepository(u.getDB())
}

func (u *UnitOfWorkImpl) QARecordRepository() contract.QARecordRepository {
	return implementation.NewQARecordRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RoomSessionRepository() contract.RoomSessionRepository {
	return implementation.NewRoomSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return implementation.NewKnowledgeEmbeddingRepository(u.getDB())
}
