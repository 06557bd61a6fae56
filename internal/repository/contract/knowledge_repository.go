package contract

import (
	"context"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/repository/specification"
)

type ChemicalProductRepository interface {
	Create(ctx context.Context, product *entity.ChemicalProduct) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChemicalProduct, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DistinctTargetDiseases(ctx context.Context, specs ...specification.Specification) ([]string, error)
	DistinctNames(ctx context.Context, specs ...specification.Specification) ([]string, error)
}

type BiologicalMethodRepository interface {
	Create(ctx context.Context, method *entity.BiologicalMethod) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BiologicalMethod, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DistinctTargetDiseases(ctx context.Context, specs ...specification.Specification) ([]string, error)
	DistinctNames(ctx context.Context, specs ...specification.Specification) ([]string, error)
}

type CulturalPracticeRepository interface {
	Create(ctx context.Context, practice *entity.CulturalPractice) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CulturalPractice, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
