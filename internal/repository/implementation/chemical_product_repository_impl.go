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

type ChemicalProductRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewChemicalProductRepository(db *gorm.DB) contract.ChemicalProductRepository {
	return &ChemicalProductRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *ChemicalProductRepositoryImpl) Create(ctx context.Context, product *entity.ChemicalProduct) error {
	m := r.mapper.ChemicalToModel(product)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*product = *r.mapper.ChemicalToEntity(m)
	return nil
}

func (r *ChemicalProductRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChemicalProduct, error) {
	var models []*model.ChemicalProduct
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChemicalsToEntities(models), nil
}

func (r *ChemicalProductRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChemicalProduct{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChemicalProductRepositoryImpl) DistinctTargetDiseases(ctx context.Context, specs ...specification.Specification) ([]string, error) {
	var lists []string
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChemicalProduct{}), specs...)
	if err := query.Order("created_at ASC").Pluck("target_diseases", &lists).Error; err != nil {
		return nil, err
	}
	return flattenLists(lists), nil
}

func (r *ChemicalProductRepositoryImpl) DistinctNames(ctx context.Context, specs ...specification.Specification) ([]string, error) {
	var names []string
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChemicalProduct{}), specs...)
	if err := query.Distinct("name").Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
