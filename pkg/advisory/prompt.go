package advisory

import (
	"fmt"
	"math"
	"strings"

	"plant-doctor-be/pkg/treatment"
)

const systemPrompt = "You are an agricultural extension officer advising Vietnamese farmers. " +
	"Answer in Vietnamese using short Markdown paragraphs and lists. " +
	"Only mention treatments from the list you are given and always wrap their names in double square brackets."

type allowedItem struct {
	name     string
	category Category
	detail   string
}

// allowedItems flattens the categories of the tier, in tier order.
func allowedItems(t tier, set treatment.Set) []allowedItem {
	var items []allowedItem
	for _, c := range t.order {
		switch c {
		case CategoryChemical:
			for _, it := range set.Chemical {
				items = append(items, allowedItem{it.Name, c, joinDetail("dosage", it.Dosage, "pre-harvest days", preHarvest(it.PreHarvestDays))})
			}
		case CategoryBiological:
			for _, it := range set.Biological {
				items = append(items, allowedItem{it.Name, c, joinDetail("effectiveness", it.Effectiveness, "timeframe", it.Timeframe)})
			}
		case CategoryCultural:
			for _, it := range set.Cultural {
				items = append(items, allowedItem{it.Name, c, joinDetail("priority", it.Priority, "details", it.Description)})
			}
		}
	}
	return items
}

func buildPrompt(t tier, req Request, allowed []allowedItem) string {
	var b strings.Builder
	if req.Plant != "" {
		fmt.Fprintf(&b, "Plant: %s\n", req.Plant)
	}
	if req.Disease != "" {
		fmt.Fprintf(&b, "Disease: %s (confidence %d%%, severity %s)\n", req.Disease, percent(req.Confidence), t.severity)
	}
	b.WriteString(t.instruction)
	b.WriteString("\n\n")

	if len(allowed) == 0 {
		b.WriteString("No verified treatments were found. Give general observation advice and do not name any product or method.\n")
		return b.String()
	}

	b.WriteString("Allowed treatments (use ONLY these, written exactly as [[Name]]):\n")
	var current Category
	for _, item := range allowed {
		if item.category != current {
			current = item.category
			fmt.Fprintf(&b, "%s:\n", strings.ToUpper(string(current)))
		}
		if item.detail != "" {
			fmt.Fprintf(&b, "- [[%s]] (%s)\n", item.name, item.detail)
		} else {
			fmt.Fprintf(&b, "- [[%s]]\n", item.name)
		}
	}
	b.WriteString("\nDo not mention any product, agent or practice that is not in this list.\n")
	return b.String()
}

func joinDetail(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			parts = append(parts, pairs[i]+": "+pairs[i+1])
		}
	}
	return strings.Join(parts, "; ")
}

func preHarvest(days int) string {
	if days <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", days)
}

func percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}
