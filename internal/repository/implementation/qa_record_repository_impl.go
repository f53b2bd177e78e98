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

type QARecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QARecordMapper
}

func NewQARecordRepository(db *gorm.DB) contract.QARecordRepository {
	return &QARecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewQARecordMapper(),
	}
}

func (r *QARecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QARecordRepositoryImpl) Create(ctx context.Context, record *entity.QARecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *QARecordRepositoryImpl) Update(ctx context.Context, record *entity.QARecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *QARecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QARecord, error) {
	var m model.QARecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QARecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QARecord, error) {
	var models []*model.QARecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.QARecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *QARecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.QARecord{}).Count(&count).Error
	return count, err
}
