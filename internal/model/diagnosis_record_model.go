package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiagnosisRecord is a persisted consolidated diagnosis result.
type DiagnosisRecord struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId       *uuid.UUID     `gorm:"type:uuid;index"`
	SessionId    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	ImageUrl     string         `gorm:"type:text;not null"`
	PlantName    string         `gorm:"type:varchar(255)"`
	DiseaseNames string         `gorm:"type:text"`
	Severity     string         `gorm:"type:varchar(20)"`
	Healthy      bool           `gorm:"default:false"`
	Result       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (DiagnosisRecord) TableName() string {
	return "diagnosis_records"
}

func (m *DiagnosisRecord) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}
