package unitofwork

import (
	"context"
	"fmt"

	"plant-doctor-be/internal/repository/contract"
	"plant-doctor-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // non-nil while a transaction is open
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ChemicalProductRepository() contract.ChemicalProductRepository {
	return implementation.NewChemicalProductRepository(u.getDB())
}

func (u *UnitOfWorkImpl) BiologicalMethodRepository() contract.BiologicalMethodRepository {
	return implementation.NewBiologicalMethodRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CulturalPracticeRepository() contract.CulturalPracticeRepository {
	return implementation.NewCulturalPracticeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) DiagnosisRecordRepository() contract.DiagnosisRecordRepository {
	return implementation.NewDiagnosisRecordRepository(u.getDB())
}
