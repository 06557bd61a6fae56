package treatment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"plant-doctor-be/pkg/matcher"

	"golang.org/x/sync/errgroup"
)

const (
	// CulturalLimit caps cultural practices per lookup.
	CulturalLimit = 10
	// minPhraseRunes is the length a full normalized phrase needs to be
	// used as a search term on its own.
	minPhraseRunes = 3
)

// Query is what a store receives for a disease-bound leg.
type Query struct {
	Terms []string
	Plant string
}

// Store reads verified knowledge. Chemical and Biological return candidates
// matching any of the query terms; the aggregator ranks and caps them.
// Cultural returns practices for the plant plus general practices.
type Store interface {
	Chemical(ctx context.Context, q Query) ([]ChemicalItem, error)
	Biological(ctx context.Context, q Query) ([]BiologicalItem, error)
	Cultural(ctx context.Context, plant string) ([]CulturalItem, error)
}

// LegErrors reports failed legs. A failed leg leaves its category empty.
type LegErrors struct {
	Chemical   error
	Biological error
	Cultural   error
}

func (e LegErrors) Any() bool {
	return e.Chemical != nil || e.Biological != nil || e.Cultural != nil
}

func (e LegErrors) Err() error {
	var errs []error
	if e.Chemical != nil {
		errs = append(errs, fmt.Errorf("chemical: %w", e.Chemical))
	}
	if e.Biological != nil {
		errs = append(errs, fmt.Errorf("biological: %w", e.Biological))
	}
	if e.Cultural != nil {
		errs = append(errs, fmt.Errorf("cultural: %w", e.Cultural))
	}
	return errors.Join(errs...)
}

type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// SearchTerms derives store query terms from a disease or plant name: each
// keyword raw and normalized, plus the whole normalized phrase when it is long
// enough.
func SearchTerms(name string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	for _, kw := range matcher.Keywords(name) {
		add(kw)
		add(matcher.Normalize(kw))
	}
	if phrase := matcher.Normalize(name); utf8.RuneCountInString(phrase) > minPhraseRunes {
		add(phrase)
	}
	return terms
}

// Lookup runs the three legs concurrently. Leg failures are reported, never
// fatal: the returned Set always holds whatever the healthy legs found.
func (a *Aggregator) Lookup(ctx context.Context, disease, plant string) (Set, LegErrors) {
	var (
		set  Set
		errs LegErrors
	)

	terms := SearchTerms(disease)
	queries := append([]string{disease}, matcher.Keywords(disease)...)
	q := Query{Terms: terms, Plant: plant}

	g, gctx := errgroup.WithContext(ctx)

	if len(terms) > 0 {
		g.Go(func() error {
			items, err := a.store.Chemical(gctx, q)
			if err != nil {
				errs.Chemical = err
				return nil
			}
			set.Chemical = rankChemical(queries, items)
			return nil
		})
		g.Go(func() error {
			items, err := a.store.Biological(gctx, q)
			if err != nil {
				errs.Biological = err
				return nil
			}
			set.Biological = rankBiological(queries, items)
			return nil
		})
	}
	g.Go(func() error {
		items, err := a.LookupCultural(gctx, plant)
		if err != nil {
			errs.Cultural = err
			return nil
		}
		set.Cultural = items
		return nil
	})

	_ = g.Wait()
	return set, errs
}

// LookupCultural returns the plant's practices and the general ones, most
// important first.
func (a *Aggregator) LookupCultural(ctx context.Context, plant string) ([]CulturalItem, error) {
	items, err := a.store.Cultural(ctx, plant)
	if err != nil {
		return nil, err
	}
	sorted := make([]CulturalItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := priorityRank(sorted[i].Priority), priorityRank(sorted[j].Priority)
		if pi != pj {
			return pi < pj
		}
		// plant specific before general
		return sorted[i].Plant != "" && sorted[j].Plant == ""
	})
	if len(sorted) > CulturalLimit {
		sorted = sorted[:CulturalLimit]
	}
	return sorted, nil
}

func rankChemical(queries []string, items []ChemicalItem) []ChemicalItem {
	ranked := matcher.RankItems(queries, items,
		func(c ChemicalItem) string { return c.Name },
		func(c ChemicalItem) []string { return c.TargetDiseases },
		matcher.TreatmentLimit,
	)
	out := make([]ChemicalItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}

func rankBiological(queries []string, items []BiologicalItem) []BiologicalItem {
	ranked := matcher.RankItems(queries, items,
		func(b BiologicalItem) string { return b.Name },
		func(b BiologicalItem) []string { return b.TargetDiseases },
		matcher.TreatmentLimit,
	)
	out := make([]BiologicalItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}
