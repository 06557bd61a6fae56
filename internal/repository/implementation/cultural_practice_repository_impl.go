package implementation

import (
	"context"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/mapper"
	"plant-doctor-be/internal/model"
	"plant-doctor-be/internal/repository/contract"
	"plant-doctor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type CulturalPracticeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewCulturalPracticeRepository(db *gorm.DB) contract.CulturalPracticeRepository {
	return &CulturalPracticeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *CulturalPracticeRepositoryImpl) Create(ctx context.Context, practice *entity.CulturalPractice) error {
	m := r.mapper.CulturalToModel(practice)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*practice = *r.mapper.CulturalToEntity(m)
	return nil
}

func (r *CulturalPracticeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CulturalPractice, error) {
	var models []*model.CulturalPractice
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.CulturalsToEntities(models), nil
}

func (r *CulturalPracticeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.CulturalPractice{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
