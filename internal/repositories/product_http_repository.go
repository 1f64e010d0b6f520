package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tokoadmin/internal/models"
	"tokoadmin/pkg/httpclient"
)

// HTTPProductRepository talks to the inventory backend's REST API.
type HTTPProductRepository struct {
	baseURL string
	client  httpclient.Doer
	service string
}

// NewHTTPProductRepository creates a repository rooted at baseURL (for example
// http://localhost:3000).
func NewHTTPProductRepository(baseURL string, client httpclient.Doer) *HTTPProductRepository {
	return &HTTPProductRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		service: "inventory backend",
	}
}

// Search calls GET /products/search?name=&sort=.
func (r *HTTPProductRepository) Search(ctx context.Context, q models.SearchQuery) ([]models.Product, error) {
	q = q.Normalize()
	params := url.Values{}
	if q.Name != "" {
		params.Set("name", q.Name)
	}
	params.Set("sort", string(q.Sort))

	var products []models.Product
	if err := r.do(ctx, http.MethodGet, "/products/search?"+params.Encode(), nil, &products); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetByID calls GET /products/:id.
func (r *HTTPProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.do(ctx, http.MethodGet, productPath(id), nil, &product); err != nil {
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	// Some backends answer an unknown id with 200 and an empty or null body.
	if product.ID == "" {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// Create calls POST /products.
func (r *HTTPProductRepository) Create(ctx context.Context, payload models.ProductPayload) (*models.Product, error) {
	product := models.Product{}
	if err := r.do(ctx, http.MethodPost, "/products", payload, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update calls PATCH /products/:id with the full draft.
func (r *HTTPProductRepository) Update(ctx context.Context, id string, payload models.ProductPayload) (*models.Product, error) {
	product := models.Product{}
	if err := r.do(ctx, http.MethodPatch, productPath(id), payload, &product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	if product.ID == "" {
		product = fromPayload(id, payload)
	}
	return &product, nil
}

// Delete calls DELETE /products/:id.
func (r *HTTPProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.do(ctx, http.MethodDelete, productPath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

func fromPayload(id string, p models.ProductPayload) models.Product {
	return models.Product{
		ID:          id,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Colors:      p.Colors,
		ImageURL:    p.ImageURL,
	}
}

// do sends one request. A nil out discards the body; an empty 2xx body leaves out untouched.
func (r *HTTPProductRepository) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := httpclient.NewRequest(ctx, method, r.baseURL+path, body)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := httpclient.ParseResponseError(resp, r.service)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrProductNotFound, err)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
