package plantid

import (
	"context"
)

// PlantCandidate is the best plant match for an image.
type PlantCandidate struct {
	CommonName     string  `json:"commonName"`
	ScientificName string  `json:"scientificName"`
	Confidence     float64 `json:"confidence"`
}

// DiseaseFinding is a disease suggested by the identification service.
type DiseaseFinding struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

// Identification is the raw answer of an Identifier. Plant is nil when the
// service could not recognize a plant in the image.
type Identification struct {
	Plant    *PlantCandidate
	Diseases []DiseaseFinding
}

// Identifier defines the contract for any plant identification backend
type Identifier interface {
	Identify(ctx context.Context, imageRef string) (*Identification, error)
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// NewCandidate builds a candidate with the confidence clamped to [0,1].
func NewCandidate(commonName, scientificName string, confidence float64) *PlantCandidate {
	if commonName == "" {
		commonName = scientificName
	}
	return &PlantCandidate{
		CommonName:     commonName,
		ScientificName: scientificName,
		Confidence:     clamp(confidence),
	}
}

func NewFinding(name string, confidence float64, description string) DiseaseFinding {
	return DiseaseFinding{
		Name:        name,
		Confidence:  clamp(confidence),
		Description: description,
	}
}
