package events

import (
	"time"
)

// DiagnosisCompleted is published once a diagnosis result has been stored.
const DiagnosisCompleted = "DIAGNOSIS_COMPLETED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DIAGNOSIS_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// CompletedDiagnosis is the data carried by a DiagnosisCompleted event.
type CompletedDiagnosis struct {
	RecordID     string
	SessionID    string
	UserID       string // empty for anonymous sessions
	PlantName    string
	DiseaseNames []string
	Severity     string
	Healthy      bool
}

func NewDiagnosisCompleted(d CompletedDiagnosis, at time.Time) BaseEvent {
	data := map[string]interface{}{
		"record_id":     d.RecordID,
		"session_id":    d.SessionID,
		"plant_name":    d.PlantName,
		"disease_names": d.DiseaseNames,
		"severity":      d.Severity,
		"healthy":       d.Healthy,
	}
	if d.UserID != "" {
		data["user_id"] = d.UserID
	}
	return BaseEvent{Type: DiagnosisCompleted, Data: data, OccurredAt: at}
}
