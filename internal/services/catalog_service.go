package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokoadmin/internal/format"
	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
)

const (
	// DescriptionPlaceholder is shown for a product without a description.
	DescriptionPlaceholder = "-"
	// NoColorsMarker is shown for a product without colors.
	NoColorsMarker = "No colors"
)

// ConfirmationRequired is returned by an unconfirmed delete. Nothing was sent.
type ConfirmationRequired struct {
	ProductID string
	Prompt    string
}

func (e *ConfirmationRequired) Error() string {
	return e.Prompt
}

// ProductView is the read-only rendering of one product.
type ProductView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	PriceDisplay string     `json:"price_display"`
	Description  string     `json:"description"`
	Colors       []string   `json:"colors"`
	ColorsLabel  string     `json:"colors_label"`
	ImageURL     string     `json:"image_url,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// NewProductView renders p for display.
func NewProductView(p models.Product) ProductView {
	v := ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		PriceDisplay: format.Price(p.Price),
		Description:  p.Description,
		Colors:       p.Colors,
		ImageURL:     p.ImageURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if strings.TrimSpace(v.Description) == "" {
		v.Description = DescriptionPlaceholder
	}
	if len(v.Colors) == 0 {
		v.Colors = []string{}
		v.ColorsLabel = NoColorsMarker
	} else {
		v.ColorsLabel = strings.Join(v.Colors, ", ")
	}
	return v
}

// CatalogService lists, shows and deletes products. It never caches: every
// call goes to the backend. It keeps no per-caller state; the list a caller
// is looking at travels with each request.
type CatalogService struct {
	productRepo repositories.ProductRepository
	activity    *ActivityService
}

// NewCatalogService creates a new CatalogService. activity may be nil.
func NewCatalogService(productRepo repositories.ProductRepository, activity *ActivityService) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		activity:    activity,
	}
}

// Search returns the products matching q.
func (s *CatalogService) Search(ctx context.Context, q models.SearchQuery) ([]ProductView, error) {
	q = q.Normalize()
	sort, err := models.ParseSortOrder(string(q.Sort))
	if err != nil {
		return nil, err
	}
	q.Sort = sort

	products, err := s.productRepo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views, nil
}

// Detail fetches one product for the read-only view.
func (s *CatalogService) Detail(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewProductView(*p)
	return &v, nil
}

// Delete removes a product once confirmed and returns the list re-fetched
// with listQuery, the search the caller is viewing. Without confirmation it
// returns *ConfirmationRequired naming the product.
func (s *CatalogService) Delete(ctx context.Context, id string, confirmed bool, operator string, listQuery models.SearchQuery) ([]ProductView, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, &ConfirmationRequired{
			ProductID: id,
			Prompt:    fmt.Sprintf("Delete product %q?", p.Name),
		}
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.activity.Record(models.ActionDeleted, p, operator)

	return s.Search(ctx, listQuery)
}
