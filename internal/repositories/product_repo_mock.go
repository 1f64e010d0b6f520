package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokoadmin/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It backs tests and the memory backend mode.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		now:      time.Now,
	}
}

// Seed stores p as-is, generating an ID when empty.
func (r *MockProductRepository) Seed(p models.Product) models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.products[p.ID] = cloneProduct(p)
	return p
}

// Search returns products whose name contains q.Name (case-insensitive), sorted by price.
func (r *MockProductRepository) Search(_ context.Context, q models.SearchQuery) ([]models.Product, error) {
	q = q.Normalize()
	needle := strings.ToLower(q.Name)

	r.mu.RLock()
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			productList = append(productList, cloneProduct(p))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(productList, func(i, j int) bool {
		a, b := productList[i], productList[j]
		if a.Price != b.Price {
			if q.Sort == models.SortAsc {
				return a.Price < b.Price
			}
			return a.Price > b.Price
		}
		return a.Name < b.Name
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	product = cloneProduct(product)
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, payload models.ProductPayload) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	product := fromPayload(uuid.New().String(), payload)
	product.CreatedAt = &now
	product.UpdatedAt = &now
	r.products[product.ID] = cloneProduct(product)
	return &product, nil
}

// Update replaces an existing product's fields.
func (r *MockProductRepository) Update(_ context.Context, id string, payload models.ProductPayload) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrProductNotFound)
	}
	now := r.now()
	product := fromPayload(id, payload)
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = &now
	r.products[id] = cloneProduct(product)
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

func cloneProduct(p models.Product) models.Product {
	if p.Colors != nil {
		p.Colors = append([]string(nil), p.Colors...)
	}
	return p
}
