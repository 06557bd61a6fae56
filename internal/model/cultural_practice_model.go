package model

import (
	"time"

	"plant-doctor-be/pkg/matcher"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CulturalPractice is a farming practice. An empty PlantName marks a general
// practice that applies to every plant.
type CulturalPractice struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title       string         `gorm:"type:varchar(255);not null"`
	Description string         `gorm:"type:text"`
	PlantName   string         `gorm:"type:varchar(255);index"`
	Priority    string         `gorm:"type:varchar(10);default:'Medium'"` // High | Medium | Low
	Category    string         `gorm:"type:varchar(50)"`                  // watering, pruning, soil...
	SearchKey   string         `gorm:"type:text;index"`
	IsVerified  bool           `gorm:"default:false;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (CulturalPractice) TableName() string {
	return "cultural_practices"
}

func (m *CulturalPractice) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

func (m *CulturalPractice) BeforeSave(tx *gorm.DB) error {
	m.SearchKey = matcher.Normalize(m.PlantName)
	return nil
}
