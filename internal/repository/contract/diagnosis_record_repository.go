package contract

import (
	"context"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/repository/specification"
)

type DiagnosisRecordRepository interface {
	Create(ctx context.Context, record *entity.DiagnosisRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagnosisRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagnosisRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
