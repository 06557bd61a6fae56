package service

import (
	"context"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/treatment"
)

// candidateLimit bounds the rows a disease leg reads before ranking.
const candidateLimit = 50

type knowledgeStore struct {
	uowFactory unitofwork.RepositoryFactory
}

// NewKnowledgeStore exposes the verified knowledge tables to the treatment
// aggregator.
func NewKnowledgeStore(uowFactory unitofwork.RepositoryFactory) treatment.Store {
	return &knowledgeStore{uowFactory: uowFactory}
}

func (s *knowledgeStore) Chemical(ctx context.Context, q treatment.Query) ([]treatment.ChemicalItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	products, err := uow.ChemicalProductRepository().FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: q.Terms},
		specification.TargetsPlant{Plant: q.Plant},
		specification.Limit{N: candidateLimit},
	)
	if err != nil {
		return nil, err
	}

	items := make([]treatment.ChemicalItem, 0, len(products))
	for _, p := range products {
		items = append(items, chemicalItem(p))
	}
	return items, nil
}

func (s *knowledgeStore) Biological(ctx context.Context, q treatment.Query) ([]treatment.BiologicalItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	methods, err := uow.BiologicalMethodRepository().FindAll(ctx,
		specification.Verified{},
		specification.KeywordMatch{Columns: []string{"target_diseases"}, Terms: q.Terms},
		specification.TargetsPlant{Plant: q.Plant},
		specification.Limit{N: candidateLimit},
	)
	if err != nil {
		return nil, err
	}

	items := make([]treatment.BiologicalItem, 0, len(methods))
	for _, m := range methods {
		items = append(items, biologicalItem(m))
	}
	return items, nil
}

func (s *knowledgeStore) Cultural(ctx context.Context, plant string) ([]treatment.CulturalItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	practices, err := uow.CulturalPracticeRepository().FindAll(ctx,
		specification.Verified{},
		specification.ForPlant{Plant: plant},
		specification.ByPriority{},
		specification.Limit{N: candidateLimit},
	)
	if err != nil {
		return nil, err
	}

	items := make([]treatment.CulturalItem, 0, len(practices))
	for _, p := range practices {
		items = append(items, treatment.CulturalItem{
			Name:        p.Title,
			Description: p.Description,
			Priority:    p.Priority,
			Category:    p.Category,
			Plant:       p.PlantName,
		})
	}
	return items, nil
}

func chemicalItem(p *entity.ChemicalProduct) treatment.ChemicalItem {
	return treatment.ChemicalItem{
		Name:             p.Name,
		ActiveIngredient: p.ActiveIngredient,
		Dosage:           p.Dosage,
		Usage:            p.Usage,
		PreHarvestDays:   p.PreHarvestDays,
		TargetDiseases:   p.TargetDiseases,
	}
}

func biologicalItem(m *entity.BiologicalMethod) treatment.BiologicalItem {
	return treatment.BiologicalItem{
		Name:           m.Name,
		Agent:          m.Agent,
		Effectiveness:  m.Effectiveness,
		Timeframe:      m.Timeframe,
		Usage:          m.Usage,
		TargetDiseases: m.TargetDiseases,
	}
}
