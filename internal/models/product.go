package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Product represents a product record as served by the inventory backend.
type Product struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Description string     `json:"description,omitempty"`
	Colors      []string   `json:"colors"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" as the record identifier.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}

// HasImage reports whether the product carries an image reference.
func (p *Product) HasImage() bool {
	return p.ImageURL != ""
}

// ProductPayload is the body sent to the backend on create (POST) and update (PATCH).
type ProductPayload struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Colors      []string `json:"colors"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// SortOrder orders search results by price.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a query value to a SortOrder. Blank means descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDesc:
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	default:
		return "", fmt.Errorf("invalid sort order %q (want asc or desc)", s)
	}
}

// SearchQuery filters products by a name substring and sorts them by price.
type SearchQuery struct {
	Name string    `json:"name"`
	Sort SortOrder `json:"sort"`
}

// Normalize trims the name, lowercases the sort order and applies its default.
func (q SearchQuery) Normalize() SearchQuery {
	q.Name = strings.TrimSpace(q.Name)
	q.Sort = SortOrder(strings.ToLower(strings.TrimSpace(string(q.Sort))))
	if q.Sort == "" {
		q.Sort = SortDesc
	}
	return q
}
