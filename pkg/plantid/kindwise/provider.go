package kindwise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plant-doctor-be/pkg/plantid"
)

const DefaultBaseURL = "https://plant.id"

// Provider calls the Kindwise plant.id v3 identification API with health
// assessment enabled.
type Provider struct {
	BaseURL  string
	APIKey   string
	Language string
	Client   *http.Client
}

var _ plantid.Identifier = &Provider{}

type Option func(*Provider)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.Client = c
	}
}

// WithLanguage sets the language of common names and disease names.
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.Language = lang
	}
}

func NewProvider(baseURL, apiKey string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Language: "vi",
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// --- Request/Response structs (Internal to this package) ---

type identificationRequest struct {
	Images        []string `json:"images"`
	Health        string   `json:"health"`
	SimilarImages bool     `json:"similar_images"`
}

type binaryProbability struct {
	Probability float64 `json:"probability"`
	Binary      bool    `json:"binary"`
}

type suggestion struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Details     struct {
		CommonNames []string `json:"common_names"`
		LocalName   string   `json:"local_name"`
		Description string   `json:"description"`
	} `json:"details"`
}

type identificationResponse struct {
	Result struct {
		IsPlant        *binaryProbability `json:"is_plant"`
		IsHealthy      *binaryProbability `json:"is_healthy"`
		Classification struct {
			Suggestions []suggestion `json:"suggestions"`
		} `json:"classification"`
		Disease struct {
			Suggestions []suggestion `json:"suggestions"`
		} `json:"disease"`
	} `json:"result"`
}

func (p *Provider) Identify(ctx context.Context, imageRef string) (*plantid.Identification, error) {
	payload, err := json.Marshal(identificationRequest{
		Images: []string{imageRef},
		Health: "all",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	query := url.Values{}
	query.Set("details", "common_names,local_name,description")
	if p.Language != "" {
		query.Set("language", p.Language)
	}
	endpoint := p.BaseURL + "/api/v3/identification?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plant.id request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 201 is returned for a newly created identification.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("plant.id error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed identificationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return toIdentification(&parsed), nil
}

func toIdentification(resp *identificationResponse) *plantid.Identification {
	out := &plantid.Identification{}

	if isPlant := resp.Result.IsPlant; isPlant != nil && !isPlant.Binary {
		return out
	}

	if suggestions := resp.Result.Classification.Suggestions; len(suggestions) > 0 {
		best := suggestions[0]
		for _, s := range suggestions[1:] {
			if s.Probability > best.Probability {
				best = s
			}
		}
		common := ""
		if len(best.Details.CommonNames) > 0 {
			common = best.Details.CommonNames[0]
		}
		out.Plant = plantid.NewCandidate(common, best.Name, best.Probability)
	}

	// A healthy verdict outranks low-probability disease suggestions.
	if isHealthy := resp.Result.IsHealthy; isHealthy != nil && isHealthy.Binary {
		return out
	}

	for _, s := range resp.Result.Disease.Suggestions {
		name := s.Details.LocalName
		if name == "" {
			name = s.Name
		}
		out.Diseases = append(out.Diseases, plantid.NewFinding(name, s.Probability, s.Details.Description))
	}
	return out
}
