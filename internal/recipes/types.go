// Package recipes fetches recipes from the upstream recipe API and serves
// them through the query cache.
package recipes

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Recipe is one upstream recipe document. The backend only reads the id and
// title; the full document is kept in Raw and passed through unchanged.
type Recipe struct {
	ID    string
	Title string
	Raw   json.RawMessage
}

// MarshalJSON writes the upstream document as received.
func (r Recipe) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

func recipeFromJSON(raw string) Recipe {
	doc := gjson.Parse(raw)
	title := doc.Get("title")
	if !title.Exists() {
		title = doc.Get("name")
	}
	return Recipe{
		ID:    doc.Get("id").String(),
		Title: title.String(),
		Raw:   json.RawMessage(raw),
	}
}

// ListParams are the list query parameters. Field order fixes the cache key
// shape: the zero value of every field is omitted.
type ListParams struct {
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// normalize trims text fields so equivalent requests share a cache key.
func (p ListParams) normalize() ListParams {
	p.Category = strings.TrimSpace(p.Category)
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	return p
}

// ListResult is one page of recipes. Pagination is the upstream object,
// absent when the API sent none.
type ListResult struct {
	Data       []Recipe        `json:"data"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
}
