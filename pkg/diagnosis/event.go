package diagnosis

import (
	"plant-doctor-be/pkg/advisory"
	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/treatment"
)

type EventType string

const (
	EventConnected            EventType = "connected"
	EventPlantID              EventType = "plant_id"
	EventProcessing           EventType = "processing"
	EventPlantIdentified      EventType = "plant_identified"
	EventDiseaseFound         EventType = "disease_found"
	EventTreatmentsChemical   EventType = "treatments_chemical"
	EventTreatmentsBiological EventType = "treatments_biological"
	EventTreatmentsCultural   EventType = "treatments_cultural"
	EventCare                 EventType = "care"
	EventComplete             EventType = "complete"
	EventError                EventType = "error"
)

// EventTypes lists every known event type in pipeline order.
var EventTypes = []EventType{
	EventConnected, EventProcessing, EventPlantID, EventPlantIdentified, EventDiseaseFound,
	EventTreatmentsChemical, EventTreatmentsBiological, EventTreatmentsCultural,
	EventCare, EventComplete, EventError,
}

// Stage returns the pipeline stage an event belongs to.
func (t EventType) Stage() Stage {
	switch t {
	case EventConnected:
		return StageValidating
	case EventPlantID, EventProcessing, EventPlantIdentified:
		return StageIdentifying
	case EventDiseaseFound:
		return StageDiseaseScan
	case EventTreatmentsChemical, EventTreatmentsBiological, EventTreatmentsCultural:
		return StageTreatmentLookup
	case EventCare:
		return StageAdvisory
	case EventComplete:
		return StageFinalizing
	}
	return StageError
}

// Terminal reports whether t ends a stream.
func (t EventType) Terminal() bool {
	return t == EventComplete || t == EventError
}

// Event is one progress milestone. Seq starts at 1 for every session.
type Event struct {
	Type    EventType
	Payload Payload
	Seq     int
}

// Payload is implemented only by the payload types of this package.
type Payload interface {
	payload()
}

type MessagePayload struct {
	Message string `json:"message"`
}

type PlantIdentifiedPayload struct {
	Plant   plantid.PlantCandidate `json:"plant"`
	Message string                 `json:"message"`
}

// DiseaseFoundPayload without a Disease is a scanning progress notice.
type DiseaseFoundPayload struct {
	Disease *plantid.DiseaseFinding `json:"disease,omitempty"`
	Message string                  `json:"message"`
}

type ChemicalTreatmentsPayload struct {
	Disease    string                   `json:"disease"`
	Treatments []treatment.ChemicalItem `json:"treatments"`
	Message    string                   `json:"message"`
}

type BiologicalTreatmentsPayload struct {
	Disease    string                     `json:"disease"`
	Treatments []treatment.BiologicalItem `json:"treatments"`
	Message    string                     `json:"message"`
}

type CulturalTreatmentsPayload struct {
	Disease    string                   `json:"disease"`
	Treatments []treatment.CulturalItem `json:"treatments"`
	Message    string                   `json:"message"`
}

// Care is the advisory plus the cultural practices it draws from.
type Care struct {
	Advisory  advisory.Text            `json:"advisory"`
	Practices []treatment.CulturalItem `json:"practices"`
}

type CarePayload struct {
	Care    Care   `json:"care"`
	Message string `json:"message"`
}

type CompletePayload struct {
	Result ConsolidatedResult `json:"result"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func (MessagePayload) payload()              {}
func (PlantIdentifiedPayload) payload()      {}
func (DiseaseFoundPayload) payload()         {}
func (ChemicalTreatmentsPayload) payload()   {}
func (BiologicalTreatmentsPayload) payload() {}
func (CulturalTreatmentsPayload) payload()   {}
func (CarePayload) payload()                 {}
func (CompletePayload) payload()             {}
func (ErrorPayload) payload()                {}
