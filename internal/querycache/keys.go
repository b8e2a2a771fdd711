package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemKeyPrefix prefixes keys of single-recipe queries.
const ItemKeyPrefix = "recipe_"

// Category tags an entry so groups of entries can be invalidated together.
type Category string

const (
	CategoryList  Category = "list"
	CategoryItem  Category = "item"
	CategoryOther Category = "other"
)

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryList, CategoryItem, CategoryOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown cache category %q", s)
	}
}

// ListKey serializes list query parameters into a deterministic key.
// Struct fields keep declaration order and map keys are sorted, so equal
// parameter sets always produce the same key.
func ListKey(params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("{%q:%q}", "params", fmt.Sprint(params))
	}
	return string(b)
}

// ItemKey returns the key of a single item query.
func ItemKey(id string) string {
	return ItemKeyPrefix + id
}

// Classify infers the category of an untagged key from the key conventions
// used by ListKey and ItemKey.
func Classify(key string) Category {
	switch {
	case strings.HasPrefix(key, "{"):
		return CategoryList
	case strings.HasPrefix(key, ItemKeyPrefix):
		return CategoryItem
	default:
		return CategoryOther
	}
}

// InvalidationKind describes what an invalidation targeted.
type InvalidationKind string

const (
	KindKey      InvalidationKind = "key"
	KindPrefix   InvalidationKind = "prefix"
	KindCategory InvalidationKind = "category"
	KindAll      InvalidationKind = "all"
)

// Invalidation is reported to Options.OnInvalidate.
type Invalidation struct {
	Cache   string           `json:"cache"`
	Kind    InvalidationKind `json:"kind"`
	Target  string           `json:"target,omitempty"`
	Removed int              `json:"removed"`
}
