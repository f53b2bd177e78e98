package implementation

import (
	"context"
	"errors"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/mapper"
	"support-chatbot-be/internal/model"
	"support-chatbot-be/internal/repository/contract"
	"support-chatbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatHistoryMapper
}

func NewChatHistoryRepository(db *gorm.DB) contract.ChatHistoryRepository {
	return &ChatHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatHistoryMapper(),
	}
}

func (r *ChatHistoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatHistoryRepositoryImpl) Create(ctx context.Context, history *entity.ChatHistory) error {
	m := r.mapper.ToModel(history)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*history = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatHistoryRepositoryImpl) Update(ctx context.Context, history *entity.ChatHistory) error {
	m := r.mapper.ToModel(history)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*history = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatHistoryRepositoryImpl) DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error {
	return r.db.WithContext(ctx).
		Where("chatbot_id = ? AND room_id = ?", chatbotId, roomId).
		Delete(&model.ChatHistory{}).Error
}

func (r *ChatHistoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatHistory, error) {
	var m model.ChatHistory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ChatHistoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatHistory, error) {
	var models []*model.ChatHistory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChatHistoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ChatHistory{}).Count(&count).Error
	return count, err
}
