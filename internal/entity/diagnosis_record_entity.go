package entity

import (
	"time"

	"github.com/google/uuid"
)

type DiagnosisRecord struct {
	Id           uuid.UUID
	UserId       *uuid.UUID
	SessionId    uuid.UUID
	ImageUrl     string
	PlantName    string
	DiseaseNames []string
	Severity     string
	Healthy      bool
	Result       []byte // raw consolidated result JSON
	CreatedAt    time.Time
}
