package implementation

import (
	"plant-doctor-be/internal/mapper"
	"plant-doctor-be/internal/repository/specification"

	"gorm.io/gorm"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// flattenLists splits comma separated columns and keeps the first spelling of
// each name.
func flattenLists(lists []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range mapper.SplitList(list) {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
