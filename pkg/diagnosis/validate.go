package diagnosis

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"plant-doctor-be/pkg/matcher"
	"plant-doctor-be/pkg/plantid"
)

// ValidateImageRef accepts an http(s) URL with a host or a base64 image data URI.
func ValidateImageRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	if strings.HasPrefix(ref, "data:") {
		header, data, ok := strings.Cut(ref, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") || data == "" {
			return fmt.Errorf("%w: malformed data uri", ErrInvalidImage)
		}
		if _, err := base64.StdEncoding.DecodeString(data); err != nil {
			return fmt.Errorf("%w: data uri payload is not base64: %v", ErrInvalidImage, err)
		}
		return nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidImage, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidImage)
	}
	return nil
}

// ScanDiseases keeps findings at or above minConfidence, one per normalized
// name (the most confident), most confident first, at most max (max <= 0 means
// no cap).
func ScanDiseases(diseases []plantid.DiseaseFinding, minConfidence float64, max int) []plantid.DiseaseFinding {
	index := make(map[string]int)
	var findings []plantid.DiseaseFinding
	for _, d := range diseases {
		key := matcher.Normalize(d.Name)
		if key == "" || d.Confidence < minConfidence {
			continue
		}
		if i, ok := index[key]; ok {
			if d.Confidence > findings[i].Confidence {
				findings[i] = d
			}
			continue
		}
		index[key] = len(findings)
		findings = append(findings, d)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Confidence > findings[j].Confidence
	})
	if max > 0 && len(findings) > max {
		findings = findings[:max]
	}
	return findings
}
