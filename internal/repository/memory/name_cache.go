package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DiseaseNamesKey = "disease_names"
	ItemNamesKey    = "item_names"
)

// NameCache holds name lists read from the knowledge tables, such as the
// verified disease names used for suggestions, so each keystroke or advisory
// does not hit the database.
type NameCache struct {
	cache *cache.Cache
}

func NewNameCache(ttl time.Duration) *NameCache {
	return &NameCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *NameCache) Save(key string, names []string) {
	r.cache.Set(key, names, cache.DefaultExpiration)
}

func (r *NameCache) Get(key string) ([]string, bool) {
	if x, found := r.cache.Get(key); found {
		return x.([]string), true
	}
	return nil, false
}

func (r *NameCache) Invalidate(key string) {
	r.cache.Delete(key)
}
