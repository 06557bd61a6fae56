package model

import (
	"time"

	"plant-doctor-be/pkg/matcher"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BiologicalMethod struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name           string         `gorm:"type:varchar(255);not null"`
	Agent          string         `gorm:"type:varchar(255)"` // organism or extract, e.g. Trichoderma
	TargetDiseases string         `gorm:"type:text"`
	TargetPlants   string         `gorm:"type:text"`
	Effectiveness  string         `gorm:"type:varchar(50)"`
	Timeframe      string         `gorm:"type:varchar(100)"`
	Usage          string         `gorm:"type:text"`
	SearchKey      string         `gorm:"type:text;index"`
	IsVerified     bool           `gorm:"default:false;index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (BiologicalMethod) TableName() string {
	return "biological_methods"
}

func (m *BiologicalMethod) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

func (m *BiologicalMethod) BeforeSave(tx *gorm.DB) error {
	m.SearchKey = matcher.Normalize(m.Name + " " + m.TargetDiseases + " " + m.TargetPlants)
	return nil
}
