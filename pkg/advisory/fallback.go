package advisory

import (
	"fmt"
	"strings"
)

// Fallback is the deterministic advisory used when generation fails. It states
// the item count per category and the confidence, and lists the tier's items.
func Fallback(req Request) Text {
	t := tierFor(req)
	allowed := allowedItems(t, req.Set)

	var b strings.Builder
	if req.Disease == "" {
		plant := req.Plant
		if plant == "" {
			plant = "Cây"
		}
		fmt.Fprintf(&b, "## %s khỏe mạnh\n\n", plant)
		fmt.Fprintf(&b, "Không phát hiện dấu hiệu bệnh (độ tin cậy nhận dạng %d%%).\n\n", percent(req.Confidence))
	} else {
		fmt.Fprintf(&b, "## %s (%s)\n\n", req.Disease, t.severity.label())
		fmt.Fprintf(&b, "Độ tin cậy chẩn đoán: %d%%.\n\n", percent(req.Confidence))
	}

	fmt.Fprintf(&b, "Tìm thấy %d thuốc hóa học, %d biện pháp sinh học, %d biện pháp canh tác.\n",
		len(req.Set.Chemical), len(req.Set.Biological), len(req.Set.Cultural))

	var refs []string
	seen := make(map[string]bool)
	if len(allowed) > 0 {
		b.WriteString("\n### Khuyến nghị\n\n")
		for i, item := range allowed {
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, item.name, item.category.label())
			if !seen[item.name] {
				seen[item.name] = true
				refs = append(refs, item.name)
			}
		}
	}

	return Text{
		Markdown: b.String(),
		Severity: t.severity,
		Items:    refs,
		Fallback: true,
	}
}
