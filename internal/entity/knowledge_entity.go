package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChemicalProduct struct {
	Id               uuid.UUID
	Name             string
	ActiveIngredient string
	TargetDiseases   []string
	TargetPlants     []string
	Dosage           string
	Usage            string
	PreHarvestDays   int
	IsVerified       bool
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

type BiologicalMethod struct {
	Id             uuid.UUID
	Name           string
	Agent          string
	TargetDiseases []string
	TargetPlants   []string
	Effectiveness  string
	Timeframe      string
	Usage          string
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type CulturalPractice struct {
	Id          uuid.UUID
	Title       string
	Description string
	PlantName   string
	Priority    string
	Category    string
	IsVerified  bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
