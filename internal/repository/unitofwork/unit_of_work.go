package unitofwork

import (
	"context"

	"plant-doctor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChemicalProductRepository() contract.ChemicalProductRepository
	BiologicalMethodRepository() contract.BiologicalMethodRepository
	CulturalPracticeRepository() contract.CulturalPracticeRepository
	DiagnosisRecordRepository() contract.DiagnosisRecordRepository
}
