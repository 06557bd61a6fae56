package service

import (
	"context"
	"fmt"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/repository/memory"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/matcher"
	"plant-doctor-be/pkg/treatment"
)

type IKnowledgeService interface {
	SuggestDiseases(ctx context.Context, query string) (*dto.SuggestDiseasesResponse, error)
	LookupTreatments(ctx context.Context, req *dto.TreatmentLookupRequest) (*dto.TreatmentLookupResponse, error)
}

type knowledgeService struct {
	uowFactory unitofwork.RepositoryFactory
	aggregator *treatment.Aggregator
	names      *memory.NameCache
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	aggregator *treatment.Aggregator,
	names *memory.NameCache,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory: uowFactory,
		aggregator: aggregator,
		names:      names,
	}
}

func (s *knowledgeService) SuggestDiseases(ctx context.Context, query string) (*dto.SuggestDiseasesResponse, error) {
	names, err := s.diseaseNames(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.SuggestDiseasesResponse{
		Query:    query,
		Diseases: matcher.Rank(query, names, matcher.SuggestionLimit),
	}, nil
}

// diseaseNames returns every disease a verified chemical or biological entry
// targets, chemical first, without duplicates.
func (s *knowledgeService) diseaseNames(ctx context.Context) ([]string, error) {
	if names, found := s.names.Get(memory.DiseaseNamesKey); found {
		return names, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chemical, err := uow.ChemicalProductRepository().DistinctTargetDiseases(ctx, specification.Verified{})
	if err != nil {
		return nil, fmt.Errorf("failed to load chemical disease names: %w", err)
	}
	biological, err := uow.BiologicalMethodRepository().DistinctTargetDiseases(ctx, specification.Verified{})
	if err != nil {
		return nil, fmt.Errorf("failed to load biological disease names: %w", err)
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(chemical)+len(biological))
	for _, name := range append(chemical, biological...) {
		key := matcher.Normalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}

	s.names.Save(memory.DiseaseNamesKey, names)
	return names, nil
}

func (s *knowledgeService) LookupTreatments(ctx context.Context, req *dto.TreatmentLookupRequest) (*dto.TreatmentLookupResponse, error) {
	set, legErrs := s.aggregator.Lookup(ctx, req.Disease, req.Plant)
	// A direct lookup has nothing to degrade to, so any failed leg fails it.
	if legErrs.Any() {
		return nil, fmt.Errorf("treatment lookup failed: %w", legErrs.Err())
	}

	return &dto.TreatmentLookupResponse{
		Disease:    req.Disease,
		Plant:      req.Plant,
		Treatments: set,
	}, nil
}
