package contract

import (
	"context"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/repository/specification"
)

type QARecordRepository interface {
	Create(ctx context.Context, record *entity.QARecord) error
	Update(ctx context.Context, record *entity.QARecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QARecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QARecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
