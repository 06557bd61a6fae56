package dto

import (
	"encoding/json"
	"time"

	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/treatment"

	"github.com/google/uuid"
)

// StreamDiagnosisRequest is the body of the stream endpoint. The image
// reference is checked by the pipeline itself so that a bad reference is
// reported as an error event on the stream.
type StreamDiagnosisRequest struct {
	ImageURL string `json:"imageUrl"`
}

type SuggestDiseasesRequest struct {
	Query string `query:"q" validate:"max=100"`
}

type SuggestDiseasesResponse struct {
	Query    string   `json:"query"`
	Diseases []string `json:"diseases"`
}

type TreatmentLookupRequest struct {
	Disease string `query:"disease" validate:"max=200"`
	Plant   string `query:"plant" validate:"max=200"`
}

type TreatmentLookupResponse struct {
	Disease    string        `json:"disease"`
	Plant      string        `json:"plant"`
	Treatments treatment.Set `json:"treatments"`
}

type DiagnosisHistoryRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

type DiagnosisHistoryItem struct {
	Id           uuid.UUID `json:"id"`
	SessionId    uuid.UUID `json:"session_id"`
	ImageUrl     string    `json:"image_url"`
	PlantName    string    `json:"plant_name"`
	DiseaseNames []string  `json:"disease_names"`
	Severity     string    `json:"severity"`
	Healthy      bool      `json:"healthy"`
	CreatedAt    time.Time `json:"created_at"`
}

type DiagnosisHistoryResponse struct {
	Items    []DiagnosisHistoryItem `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

type DiagnosisHistoryDetail struct {
	DiagnosisHistoryItem
	Result json.RawMessage `json:"result"`
}

// PublishDiagnosisResultMessage is the in-process hand-off of a finished
// diagnosis to the consumer that stores it.
type PublishDiagnosisResultMessage struct {
	UserId *uuid.UUID                   `json:"user_id,omitempty"`
	Result diagnosis.ConsolidatedResult `json:"result"`
}
