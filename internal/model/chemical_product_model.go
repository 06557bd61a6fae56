package model

import (
	"time"

	"plant-doctor-be/pkg/matcher"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChemicalProduct struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name             string         `gorm:"type:varchar(255);not null"`
	ActiveIngredient string         `gorm:"type:varchar(255)"`
	TargetDiseases   string         `gorm:"type:text"` // comma separated
	TargetPlants     string         `gorm:"type:text"` // comma separated
	Dosage           string         `gorm:"type:varchar(255)"`
	Usage            string         `gorm:"type:text"`
	PreHarvestDays   int            `gorm:"default:0"`
	SearchKey        string         `gorm:"type:text;index"`
	IsVerified       bool           `gorm:"default:false;index"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (ChemicalProduct) TableName() string {
	return "chemical_products"
}

func (m *ChemicalProduct) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

// BeforeSave keeps the diacritic-free search column in sync with the name fields.
func (m *ChemicalProduct) BeforeSave(tx *gorm.DB) error {
	m.SearchKey = matcher.Normalize(m.Name + " " + m.TargetDiseases + " " + m.TargetPlants)
	return nil
}
