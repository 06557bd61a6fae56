package implementation

import (
	"context"
	"errors"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/mapper"
	"plant-doctor-be/internal/model"
	"plant-doctor-be/internal/repository/contract"
	"plant-doctor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type DiagnosisRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DiagnosisRecordMapper
}

func NewDiagnosisRecordRepository(db *gorm.DB) contract.DiagnosisRecordRepository {
	return &DiagnosisRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDiagnosisRecordMapper(),
	}
}

func (r *DiagnosisRecordRepositoryImpl) Create(ctx context.Context, record *entity.DiagnosisRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *DiagnosisRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiagnosisRecord, error) {
	var m model.DiagnosisRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DiagnosisRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiagnosisRecord, error) {
	var models []*model.DiagnosisRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DiagnosisRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.DiagnosisRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
