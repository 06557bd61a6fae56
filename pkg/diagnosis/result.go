package diagnosis

import (
	"time"

	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/treatment"
)

// GeneralKey holds the cultural practices of a healthy plant.
const GeneralKey = "general"

// Treatments maps disease name to items, per category. A category with no
// entry is omitted from JSON.
type Treatments struct {
	Chemical   map[string][]treatment.ChemicalItem   `json:"chemical,omitempty"`
	Biological map[string][]treatment.BiologicalItem `json:"biological,omitempty"`
	Cultural   map[string][]treatment.CulturalItem   `json:"cultural,omitempty"`
}

func (t *Treatments) AddChemical(disease string, items []treatment.ChemicalItem) {
	if t.Chemical == nil {
		t.Chemical = make(map[string][]treatment.ChemicalItem)
	}
	t.Chemical[disease] = append(nonNil(t.Chemical[disease]), items...)
}

func (t *Treatments) AddBiological(disease string, items []treatment.BiologicalItem) {
	if t.Biological == nil {
		t.Biological = make(map[string][]treatment.BiologicalItem)
	}
	t.Biological[disease] = append(nonNil(t.Biological[disease]), items...)
}

func (t *Treatments) AddCultural(disease string, items []treatment.CulturalItem) {
	if t.Cultural == nil {
		t.Cultural = make(map[string][]treatment.CulturalItem)
	}
	t.Cultural[disease] = append(nonNil(t.Cultural[disease]), items...)
}

// ConsolidatedResult is the final merge of a diagnosis.
type ConsolidatedResult struct {
	SessionID   string                   `json:"sessionId"`
	ImageURL    string                   `json:"imageUrl"`
	Plant       *plantid.PlantCandidate  `json:"plant"`
	Diseases    []plantid.DiseaseFinding `json:"diseases"`
	Treatments  Treatments               `json:"treatments"`
	Advisory    advisory.Text            `json:"advisory"`
	Severity    advisory.Severity        `json:"severity"`
	Healthy     bool                     `json:"healthy"`
	StartedAt   time.Time                `json:"startedAt"`
	CompletedAt time.Time                `json:"completedAt"`
}

// DiseaseNames lists the findings in confidence order.
func (r *ConsolidatedResult) DiseaseNames() []string {
	names := make([]string, 0, len(r.Diseases))
	for _, d := range r.Diseases {
		names = append(names, d.Name)
	}
	return names
}
