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

type RoomSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RoomSessionMapper
}

func NewRoomSessionRepository(db *gorm.DB) contract.RoomSessionRepository {
	return &RoomSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewRoomSessionMapper(),
	}
}

func (r *RoomSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RoomSessionRepositoryImpl) Create(ctx context.Context, session *entity.RoomSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *RoomSessionRepositoryImpl) Update(ctx context.Context, session *entity.RoomSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *RoomSessionRepositoryImpl) DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error {
	return r.db.WithContext(ctx).
		Where("chatbot_id = ? AND room_id = ?", chatbotId, roomId).
		Delete(&model.RoomSession{}).Error
}

func (r *RoomSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RoomSession, error) {
	var m model.RoomSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
