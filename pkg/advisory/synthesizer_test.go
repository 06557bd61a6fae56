package advisory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode"

	"plant-doctor-be/pkg/llm"
	"plant-doctor-be/pkg/treatment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply      func(prompt string) (string, error)
	lastPrompt string
	block      bool
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, options...)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.lastPrompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply(prompt)
}

var boldSpan = regexp.MustCompile(`\*\*([^*]+)\*\*`)

func boldNames(md string) []string {
	var out []string
	for _, m := range boldSpan.FindAllStringSubmatch(md, -1) {
		out = append(out, m[1])
	}
	return out
}

func sampleSet() treatment.Set {
	return treatment.Set{
		Chemical:   []treatment.ChemicalItem{{Name: "Anvil 5SC", Dosage: "20ml/16L"}},
		Biological: []treatment.BiologicalItem{{Name: "Trichoderma", Effectiveness: "Cao", Timeframe: "7 ngày"}},
		Cultural:   []treatment.CulturalItem{{Name: "Tỉa lá gốc", Priority: treatment.PriorityHigh}},
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Severity
	}{
		{0.95, SeveritySevere},
		{0.61, SeveritySevere},
		{0.6, SeverityModerate},
		{0.5, SeverityModerate},
		{0.4, SeverityModerate},
		{0.39, SeverityMild},
		{0, SeverityMild},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.confidence), func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityFor(tt.confidence))
		})
	}
}

func TestPromptFollowsTierOrder(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		order      []string
		absent     string
	}{
		{"severe", 0.9, []string{"CHEMICAL", "BIOLOGICAL", "CULTURAL"}, ""},
		{"moderate", 0.5, []string{"BIOLOGICAL", "CHEMICAL", "CULTURAL"}, ""},
		{"mild", 0.2, []string{"CULTURAL", "BIOLOGICAL"}, "Anvil 5SC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Disease: "Đốm lá", Confidence: tt.confidence, Plant: "Cà chua", Set: sampleSet()}
			tr := tierFor(req)
			prompt := buildPrompt(tr, req, allowedItems(tr, req.Set))

			last := -1
			for _, heading := range tt.order {
				i := strings.Index(prompt, heading+":")
				require.GreaterOrEqual(t, i, 0, heading)
				assert.Greater(t, i, last)
				last = i
			}
			if tt.absent != "" {
				assert.NotContains(t, prompt, tt.absent)
			}
		})
	}
}

func TestSynthesizeRendersMarkers(t *testing.T) {
	provider := &fakeLLM{reply: func(string) (string, error) {
		return "Phun **ngay** [[Anvil 5SC]], sau đó dùng [[Trichoderma]] và [[ Anvil 5SC ]].", nil
	}}

	text, err := NewSynthesizer(provider, time.Second).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.87, Plant: "Cà chua", Set: sampleSet()})
	require.NoError(t, err)

	assert.Equal(t, "Phun ngay **Anvil 5SC**, sau đó dùng **Trichoderma** và **Anvil 5SC**.", text.Markdown)
	assert.Equal(t, []string{"Anvil 5SC", "Trichoderma"}, text.Items)
	assert.Equal(t, SeveritySevere, text.Severity)
	assert.False(t, text.Fallback)
	assert.Contains(t, provider.lastPrompt, "confidence 87%")
}

func TestSynthesizeRejectsInventedItem(t *testing.T) {
	provider := &fakeLLM{reply: func(string) (string, error) {
		return "Dùng [[Thuốc Thần Kỳ]].", nil
	}}

	_, err := NewSynthesizer(provider, time.Second).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.87, Set: sampleSet()})
	assert.ErrorIs(t, err, ErrUngrounded)
}

func TestSynthesizeRejectsItemOutsideTier(t *testing.T) {
	// Mild advisories never name chemical products.
	provider := &fakeLLM{reply: func(string) (string, error) {
		return "Dùng [[Anvil 5SC]].", nil
	}}

	_, err := NewSynthesizer(provider, time.Second).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.2, Set: sampleSet()})
	assert.ErrorIs(t, err, ErrUngrounded)
}

func TestSynthesizeFailures(t *testing.T) {
	req := Request{Disease: "Đốm lá", Confidence: 0.5, Set: sampleSet()}

	_, err := NewSynthesizer(nil, time.Second).Synthesize(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoProvider)

	empty := &fakeLLM{reply: func(string) (string, error) { return "  \n", nil }}
	_, err = NewSynthesizer(empty, time.Second).Synthesize(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmptyOutput)

	broken := &fakeLLM{reply: func(string) (string, error) { return "", errors.New("connection refused") }}
	_, err = NewSynthesizer(broken, time.Second).Synthesize(context.Background(), req)
	assert.ErrorContains(t, err, "connection refused")

	slow := &fakeLLM{block: true}
	_, err = NewSynthesizer(slow, 20*time.Millisecond).Synthesize(context.Background(), req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallback(t *testing.T) {
	text := Fallback(Request{Disease: "Đốm lá", Confidence: 0.87, Plant: "Cà chua", Set: sampleSet()})

	assert.True(t, text.Fallback)
	assert.Equal(t, SeveritySevere, text.Severity)
	assert.Contains(t, text.Markdown, "87%")
	assert.Contains(t, text.Markdown, "Tìm thấy 1 thuốc hóa học, 1 biện pháp sinh học, 1 biện pháp canh tác.")
	assert.Equal(t, []string{"Anvil 5SC", "Trichoderma", "Tỉa lá gốc"}, boldNames(text.Markdown))
	assert.Equal(t, []string{"Anvil 5SC", "Trichoderma", "Tỉa lá gốc"}, text.Items)
}

func TestFallbackHealthy(t *testing.T) {
	set := treatment.Set{Cultural: []treatment.CulturalItem{{Name: "Tưới nước buổi sáng", Priority: treatment.PriorityMedium}}}
	text := Fallback(Request{Confidence: 0.92, Plant: "Cà chua", Set: set})

	assert.Equal(t, SeverityNone, text.Severity)
	assert.Contains(t, text.Markdown, "## Cà chua khỏe mạnh")
	assert.Contains(t, text.Markdown, "92%")
	assert.Equal(t, []string{"Tưới nước buổi sáng"}, text.Items)
}

func randomSet(r *rand.Rand) treatment.Set {
	var set treatment.Set
	for i := r.Intn(4); i > 0; i-- {
		set.Chemical = append(set.Chemical, treatment.ChemicalItem{Name: fmt.Sprintf("Chem-%d", r.Intn(100))})
	}
	for i := r.Intn(4); i > 0; i-- {
		set.Biological = append(set.Biological, treatment.BiologicalItem{Name: fmt.Sprintf("Bio-%d", r.Intn(100))})
	}
	for i := r.Intn(4); i > 0; i-- {
		set.Cultural = append(set.Cultural, treatment.CulturalItem{Name: fmt.Sprintf("Practice-%d", r.Intn(100))})
	}
	return set
}

type staticCatalog []string

func (c staticCatalog) ItemNames(context.Context) ([]string, error) { return c, nil }

// tokens splits md into words, keeping hyphenated names whole.
func tokens(md string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(md, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		set[f] = true
	}
	return set
}

func TestAdvisoryNeverNamesUnretrievedItems(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	known := staticCatalog{"Chem-1", "Bio-2", "Practice-3", "Chem-77"}
	pool := append([]string{"Invented Spray"}, known...)

	for i := 0; i < 500; i++ {
		set := randomSet(r)
		chem, bio, cult := set.Names()
		retrieved := make(map[string]bool)
		for _, n := range append(append(chem, bio...), cult...) {
			retrieved[n] = true
		}

		var reply strings.Builder
		for j := r.Intn(5); j >= 0; j-- {
			fmt.Fprintf(&reply, "Bước %d: [[%s]] **%s**, sau đó dùng %s. ", j,
				pool[r.Intn(len(pool))], pool[r.Intn(len(pool))], pool[r.Intn(len(pool))])
		}
		provider := &fakeLLM{reply: func(string) (string, error) { return reply.String(), nil }}

		req := Request{Disease: "Đốm lá", Confidence: r.Float64(), Set: set}
		text, err := NewSynthesizer(provider, time.Second, WithCatalog(known)).Synthesize(context.Background(), req)
		if err != nil {
			text = Fallback(req)
		}

		for _, name := range boldNames(text.Markdown) {
			assert.True(t, retrieved[name], "iteration %d: %q was not retrieved", i, name)
		}
		for _, name := range text.Items {
			assert.True(t, retrieved[name], "iteration %d: %q was not retrieved", i, name)
		}
		words := tokens(text.Markdown)
		for _, name := range known {
			if !retrieved[name] {
				assert.False(t, words[name], "iteration %d: %q mentioned without being retrieved", i, name)
			}
		}
	}
}

func TestSynthesizeRejectsUnmarkedCatalogItem(t *testing.T) {
	provider := &fakeLLM{reply: func(string) (string, error) {
		return "Phun [[Anvil 5SC]] ngay, sau đó dùng thuốc Mancozeb 80WP mỗi tuần.", nil
	}}
	catalog := staticCatalog{"Anvil 5SC", "Mancozeb 80WP", "Trichoderma"}

	_, err := NewSynthesizer(provider, time.Second, WithCatalog(catalog)).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.87, Set: sampleSet()})
	assert.ErrorIs(t, err, ErrUngrounded)
	assert.ErrorContains(t, err, "Mancozeb 80WP")
}

func TestSynthesizeAllowsRetrievedPlainMentions(t *testing.T) {
	// "Anvil" is a separate catalog entry contained in the retrieved "Anvil 5SC".
	provider := &fakeLLM{reply: func(string) (string, error) {
		return "Phun [[Anvil 5SC]] rồi nhắc lại anvil 5sc và trichoderma.", nil
	}}
	catalog := staticCatalog{"Anvil", "Anvil 5SC", "Trichoderma"}

	text, err := NewSynthesizer(provider, time.Second, WithCatalog(catalog)).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.87, Set: sampleSet()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anvil 5SC"}, text.Items)
}

type failingCatalog struct{}

func (failingCatalog) ItemNames(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func TestSynthesizeCatalogFailure(t *testing.T) {
	provider := &fakeLLM{reply: func(string) (string, error) { return "Dùng [[Trichoderma]].", nil }}

	_, err := NewSynthesizer(provider, time.Second, WithCatalog(failingCatalog{})).Synthesize(context.Background(),
		Request{Disease: "Đốm lá", Confidence: 0.5, Set: sampleSet()})
	assert.ErrorContains(t, err, "db down")
}
