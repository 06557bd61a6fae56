package mapper

import (
	"strings"
	"time"

	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/model"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ChemicalToEntity(p *model.ChemicalProduct) *entity.ChemicalProduct {
	if p == nil {
		return nil
	}
	return &entity.ChemicalProduct{
		Id:               p.Id,
		Name:             p.Name,
		ActiveIngredient: p.ActiveIngredient,
		TargetDiseases:   SplitList(p.TargetDiseases),
		TargetPlants:     SplitList(p.TargetPlants),
		Dosage:           p.Dosage,
		Usage:            p.Usage,
		PreHarvestDays:   p.PreHarvestDays,
		IsVerified:       p.IsVerified,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        optionalTime(p.UpdatedAt),
	}
}

func (m *KnowledgeMapper) ChemicalToModel(p *entity.ChemicalProduct) *model.ChemicalProduct {
	if p == nil {
		return nil
	}
	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}
	return &model.ChemicalProduct{
		Id:               p.Id,
		Name:             p.Name,
		ActiveIngredient: p.ActiveIngredient,
		TargetDiseases:   JoinList(p.TargetDiseases),
		TargetPlants:     JoinList(p.TargetPlants),
		Dosage:           p.Dosage,
		Usage:            p.Usage,
		PreHarvestDays:   p.PreHarvestDays,
		IsVerified:       p.IsVerified,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *KnowledgeMapper) ChemicalsToEntities(products []*model.ChemicalProduct) []*entity.ChemicalProduct {
	entities := make([]*entity.ChemicalProduct, len(products))
	for i, p := range products {
		entities[i] = m.ChemicalToEntity(p)
	}
	return entities
}

func (m *KnowledgeMapper) BiologicalToEntity(b *model.BiologicalMethod) *entity.BiologicalMethod {
	if b == nil {
		return nil
	}
	return &entity.BiologicalMethod{
		Id:             b.Id,
		Name:           b.Name,
		Agent:          b.Agent,
		TargetDiseases: SplitList(b.TargetDiseases),
		TargetPlants:   SplitList(b.TargetPlants),
		Effectiveness:  b.Effectiveness,
		Timeframe:      b.Timeframe,
		Usage:          b.Usage,
		IsVerified:     b.IsVerified,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      optionalTime(b.UpdatedAt),
	}
}

func (m *KnowledgeMapper) BiologicalToModel(b *entity.BiologicalMethod) *model.BiologicalMethod {
	if b == nil {
		return nil
	}
	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}
	return &model.BiologicalMethod{
		Id:             b.Id,
		Name:           b.Name,
		Agent:          b.Agent,
		TargetDiseases: JoinList(b.TargetDiseases),
		TargetPlants:   JoinList(b.TargetPlants),
		Effectiveness:  b.Effectiveness,
		Timeframe:      b.Timeframe,
		Usage:          b.Usage,
		IsVerified:     b.IsVerified,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *KnowledgeMapper) BiologicalsToEntities(methods []*model.BiologicalMethod) []*entity.BiologicalMethod {
	entities := make([]*entity.BiologicalMethod, len(methods))
	for i, b := range methods {
		entities[i] = m.BiologicalToEntity(b)
	}
	return entities
}

func (m *KnowledgeMapper) CulturalToEntity(c *model.CulturalPractice) *entity.CulturalPractice {
	if c == nil {
		return nil
	}
	return &entity.CulturalPractice{
		Id:          c.Id,
		Title:       c.Title,
		Description: c.Description,
		PlantName:   c.PlantName,
		Priority:    c.Priority,
		Category:    c.Category,
		IsVerified:  c.IsVerified,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   optionalTime(c.UpdatedAt),
	}
}

func (m *KnowledgeMapper) CulturalToModel(c *entity.CulturalPractice) *model.CulturalPractice {
	if c == nil {
		return nil
	}
	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}
	return &model.CulturalPractice{
		Id:          c.Id,
		Title:       c.Title,
		Description: c.Description,
		PlantName:   c.PlantName,
		Priority:    c.Priority,
		Category:    c.Category,
		IsVerified:  c.IsVerified,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *KnowledgeMapper) CulturalsToEntities(practices []*model.CulturalPractice) []*entity.CulturalPractice {
	entities := make([]*entity.CulturalPractice, len(practices))
	for i, c := range practices {
		entities[i] = m.CulturalToEntity(c)
	}
	return entities
}

// SplitList parses a comma separated column into trimmed, non-empty values.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinList(values []string) string {
	return strings.Join(values, ", ")
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
