package treatment

// ChemicalItem is a verified chemical product.
type ChemicalItem struct {
	Name             string   `json:"name"`
	ActiveIngredient string   `json:"activeIngredient,omitempty"`
	Dosage           string   `json:"dosage"`
	Usage            string   `json:"usage,omitempty"`
	PreHarvestDays   int      `json:"preHarvestDays,omitempty"`
	TargetDiseases   []string `json:"targetDiseases,omitempty"`
}

// BiologicalItem is a verified biological control method.
type BiologicalItem struct {
	Name           string   `json:"name"`
	Agent          string   `json:"agent,omitempty"`
	Effectiveness  string   `json:"effectiveness"`
	Timeframe      string   `json:"timeframe"`
	Usage          string   `json:"usage,omitempty"`
	TargetDiseases []string `json:"targetDiseases,omitempty"`
}

// CulturalItem is a farming practice. An empty Plant marks a general practice.
type CulturalItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Category    string `json:"category,omitempty"`
	Plant       string `json:"plant,omitempty"`
}

// Set groups the treatments found for one disease.
type Set struct {
	Chemical   []ChemicalItem   `json:"chemical"`
	Biological []BiologicalItem `json:"biological"`
	Cultural   []CulturalItem   `json:"cultural"`
}

func (s Set) Empty() bool {
	return len(s.Chemical) == 0 && len(s.Biological) == 0 && len(s.Cultural) == 0
}

// Names lists every item name in the set, per category.
func (s Set) Names() (chemical, biological, cultural []string) {
	for _, c := range s.Chemical {
		chemical = append(chemical, c.Name)
	}
	for _, b := range s.Biological {
		biological = append(biological, b.Name)
	}
	for _, c := range s.Cultural {
		cultural = append(cultural, c.Name)
	}
	return chemical, biological, cultural
}

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}
