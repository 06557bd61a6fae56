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

type BiologicalMethodRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewBiologicalMethodRepository(db *gorm.DB) contract.BiologicalMethodRepository {
	return &BiologicalMethodRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *BiologicalMethodRepositoryImpl) Create(ctx context.Context, method *entity.BiologicalMethod) error {
	m := r.mapper.BiologicalToModel(method)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*method = *r.mapper.BiologicalToEntity(m)
	return nil
}

func (r *BiologicalMethodRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BiologicalMethod, error) {
	var models []*model.BiologicalMethod
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.BiologicalsToEntities(models), nil
}

func (r *BiologicalMethodRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.BiologicalMethod{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BiologicalMethodRepositoryImpl) DistinctTargetDiseases(ctx context.Context, specs ...specification.Specification) ([]string, error) {
	var lists []string
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.BiologicalMethod{}), specs...)
	if err := query.Order("created_at ASC").Pluck("target_diseases", &lists).Error; err != nil {
		return nil, err
	}
	return flattenLists(lists), nil
}

func (r *BiologicalMethodRepositoryImpl) DistinctNames(ctx context.Context, specs ...specification.Specification) ([]string, error) {
	var names []string
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.BiologicalMethod{}), specs...)
	if err := query.Distinct("name").Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
