package advisory

// Severity is the confidence bucket that selects the advisory template.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMild     Severity = "mild"
	// SeverityNone is used for healthy plants.
	SeverityNone Severity = "none"
)

const (
	severeAbove  = 0.6
	moderateFrom = 0.4
)

// SeverityFor buckets a disease confidence: above 0.6 is severe, 0.4 to 0.6
// moderate, below 0.4 mild.
func SeverityFor(confidence float64) Severity {
	switch {
	case confidence > severeAbove:
		return SeveritySevere
	case confidence >= moderateFrom:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

func (s Severity) label() string {
	switch s {
	case SeveritySevere:
		return "Nghiêm trọng"
	case SeverityModerate:
		return "Trung bình"
	case SeverityMild:
		return "Nhẹ"
	}
	return "Khỏe mạnh"
}

type Category string

const (
	CategoryChemical   Category = "chemical"
	CategoryBiological Category = "biological"
	CategoryCultural   Category = "cultural"
)

func (c Category) label() string {
	switch c {
	case CategoryChemical:
		return "hóa học"
	case CategoryBiological:
		return "sinh học"
	}
	return "canh tác"
}

// tier is the treatment sequencing for one severity.
type tier struct {
	severity    Severity
	order       []Category
	instruction string
}

var tiers = map[Severity]tier{
	SeveritySevere: {
		severity:    SeveritySevere,
		order:       []Category{CategoryChemical, CategoryBiological, CategoryCultural},
		instruction: "The infection is severe. Recommend the chemical products first, then the biological methods, then the cultural practices.",
	},
	SeverityModerate: {
		severity:    SeverityModerate,
		order:       []Category{CategoryBiological, CategoryChemical, CategoryCultural},
		instruction: "The infection is moderate. Recommend the biological methods first. Present chemical products only as a fallback if biological control fails. Finish with the cultural practices.",
	},
	SeverityMild: {
		severity:    SeverityMild,
		order:       []Category{CategoryCultural, CategoryBiological},
		instruction: "The infection is mild. Recommend the cultural practices first, then the biological methods. Do not recommend chemical products.",
	},
	SeverityNone: {
		severity:    SeverityNone,
		order:       []Category{CategoryCultural},
		instruction: "The plant is healthy. Give preventive care advice based on the cultural practices.",
	},
}

func tierFor(req Request) tier {
	if req.Disease == "" {
		return tiers[SeverityNone]
	}
	return tiers[SeverityFor(req.Confidence)]
}
