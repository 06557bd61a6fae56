package advisory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"plant-doctor-be/pkg/llm"
	"plant-doctor-be/pkg/matcher"
	"plant-doctor-be/pkg/treatment"
)

var (
	ErrNoProvider  = errors.New("advisory: no llm provider configured")
	ErrEmptyOutput = errors.New("advisory: empty generation")
	ErrUngrounded  = errors.New("advisory: references an item that was not retrieved")
)

var markerPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Request is the input of one advisory. An empty Disease means the plant is
// healthy and Confidence is the plant identification confidence.
type Request struct {
	Disease    string
	Confidence float64
	Plant      string
	Set        treatment.Set
}

// Text is the rendered advisory. Items lists the treatment names it references.
type Text struct {
	Markdown string   `json:"markdown"`
	Severity Severity `json:"severity"`
	Items    []string `json:"items"`
	Fallback bool     `json:"fallback"`
}

// Catalog lists every treatment name known to the knowledge base. Output that
// mentions a catalog name outside the retrieved items is rejected even when
// the generator did not mark it.
type Catalog interface {
	ItemNames(ctx context.Context) ([]string, error)
}

type Option func(*Synthesizer)

func WithCatalog(c Catalog) Option {
	return func(s *Synthesizer) {
		s.catalog = c
	}
}

type Synthesizer struct {
	provider  llm.LLMProvider
	catalog   Catalog
	timeout   time.Duration
	maxTokens int
}

func NewSynthesizer(provider llm.LLMProvider, timeout time.Duration, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider:  provider,
		timeout:   timeout,
		maxTokens: 600,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize generates the narrative for req. Every error means the caller
// should use Fallback instead.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (Text, error) {
	if s.provider == nil {
		return Text{}, ErrNoProvider
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	t := tierFor(req)
	allowed := allowedItems(t, req.Set)

	out, err := s.provider.Generate(ctx, buildPrompt(t, req, allowed),
		llm.WithSystem(systemPrompt),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return Text{}, fmt.Errorf("generate advisory: %w", err)
	}

	names := make(map[string]bool, len(allowed))
	for _, item := range allowed {
		names[item.name] = true
	}
	md, refs, err := Ground(out, names)
	if err != nil {
		return Text{}, err
	}

	if s.catalog != nil {
		known, err := s.catalog.ItemNames(ctx)
		if err != nil {
			return Text{}, fmt.Errorf("load item catalog: %w", err)
		}
		if name, found := unretrievedMention(md, names, known); found {
			return Text{}, fmt.Errorf("%w: %q", ErrUngrounded, name)
		}
	}
	return Text{Markdown: md, Severity: t.severity, Items: refs}, nil
}

// Ground checks that every [[marker]] in raw names an allowed item and renders
// markers as bold text. Bold markup the generator wrote on its own is removed,
// so bold spans in the result are always grounded item names.
func Ground(raw string, allowed map[string]bool) (string, []string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, ErrEmptyOutput
	}

	var refs []string
	seen := make(map[string]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(raw, -1) {
		name := strings.TrimSpace(m[1])
		if !allowed[name] {
			return "", nil, fmt.Errorf("%w: %q", ErrUngrounded, name)
		}
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}

	md := strings.ReplaceAll(raw, "**", "")
	md = markerPattern.ReplaceAllStringFunc(md, func(m string) string {
		return "**" + strings.TrimSpace(m[2:len(m)-2]) + "**"
	})
	return md, refs, nil
}

// unretrievedMention reports the first catalog name that appears in text as a
// whole phrase but is not allowed. Allowed names are removed from the text
// first, so a catalog name contained in an allowed one is not a match.
func unretrievedMention(text string, allowed map[string]bool, catalog []string) (string, bool) {
	haystack := " " + searchForm(text) + " "

	permitted := make(map[string]bool, len(allowed))
	phrases := make([]string, 0, len(allowed))
	for name := range allowed {
		if f := searchForm(name); f != "" {
			permitted[f] = true
			phrases = append(phrases, f)
		}
	}
	sort.Slice(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })
	for _, p := range phrases {
		for strings.Contains(haystack, " "+p+" ") {
			haystack = strings.ReplaceAll(haystack, " "+p+" ", "  ")
		}
	}

	for _, name := range catalog {
		f := searchForm(name)
		if f == "" || permitted[f] {
			continue
		}
		if strings.Contains(haystack, " "+f+" ") {
			return name, true
		}
	}
	return "", false
}

// searchForm normalizes s and turns everything but letters and digits into
// single spaces.
func searchForm(s string) string {
	return strings.Join(strings.FieldsFunc(matcher.Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
