package specification

import (
	"strings"

	"plant-doctor-be/pkg/matcher"

	"gorm.io/gorm"
)

// Verified keeps only reviewed knowledge entries.
type Verified struct{}

func (s Verified) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_verified = ?", true)
}

// KeywordMatch ORs a LIKE condition per term over the given columns. Terms are
// matched both raw (lowercased) and diacritic-normalized against search_key, so
// the same query works on postgres and sqlite. No terms means no filter.
type KeywordMatch struct {
	Columns []string
	Terms   []string
}

func (s KeywordMatch) Apply(db *gorm.DB) *gorm.DB {
	var (
		conds []string
		args  []interface{}
		seen  = make(map[string]bool)
	)
	add := func(column, term string) {
		key := column + "\x00" + term
		if term == "" || seen[key] {
			return
		}
		seen[key] = true
		conds = append(conds, "LOWER("+column+") LIKE ?")
		args = append(args, "%"+term+"%")
	}
	for _, term := range s.Terms {
		raw := strings.ToLower(strings.TrimSpace(term))
		for _, column := range s.Columns {
			add(column, raw)
		}
		add("search_key", matcher.Normalize(term))
	}
	if len(conds) == 0 {
		return db
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// ForPlant keeps practices for the given plant plus general practices, which
// have no plant name. An empty plant keeps general practices only.
type ForPlant struct {
	Plant string
}

func (s ForPlant) Apply(db *gorm.DB) *gorm.DB {
	plant := matcher.Normalize(s.Plant)
	if plant == "" {
		return db.Where("plant_name = ?", "")
	}
	return db.Where("(plant_name = ? OR search_key LIKE ?)", "", "%"+plant+"%")
}

// TargetsPlant keeps products with no plant restriction or one naming the plant.
type TargetsPlant struct {
	Plant string
}

func (s TargetsPlant) Apply(db *gorm.DB) *gorm.DB {
	plant := matcher.Normalize(s.Plant)
	if plant == "" {
		return db
	}
	return db.Where("(target_plants = ? OR search_key LIKE ?)", "", "%"+plant+"%")
}

type Limit struct {
	N int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.N)
}

// ByPriority orders practices High, Medium, Low, then by title, so a Limit
// keeps the most important ones.
type ByPriority struct{}

func (s ByPriority) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Order("CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 WHEN 'Low' THEN 2 ELSE 3 END").
		Order("title ASC")
}
