package factory

import (
	"fmt"
	"net/http"
	"time"

	"plant-doctor-be/pkg/plantid"
	"plant-doctor-be/pkg/plantid/kindwise"
)

func NewIdentifier(providerType, apiKey, baseURL, language string, timeout time.Duration) (plantid.Identifier, error) {
	switch providerType {
	case "kindwise", "plantid":
		if apiKey == "" {
			return nil, fmt.Errorf("plant identification api key is required for provider %q", providerType)
		}
		opts := []kindwise.Option{kindwise.WithLanguage(language)}
		if timeout > 0 {
			opts = append(opts, kindwise.WithHTTPClient(&http.Client{Timeout: timeout}))
		}
		return kindwise.NewProvider(baseURL, apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported plant identification provider: %s", providerType)
	}
}
