package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokoadmin/internal/models"
	"tokoadmin/pkg/httpclient"
	"tokoadmin/pkg/logger"
)

func newTestHTTPRepo(t *testing.T, h http.HandlerFunc) *HTTPProductRepository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := httpclient.New("inventory", httpclient.DefaultConfig(), logger.Discard())
	return NewHTTPProductRepository(srv.URL+"/", client)
}

func TestHTTPProductRepository_Search(t *testing.T) {
	var gotQuery string
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"_id":"1","name":"Mouse","price":120,"colors":["black"]},{"id":"2","name":"Mousepad","price":20,"colors":[]}]`))
	})

	products, err := repo.Search(context.Background(), models.SearchQuery{Name: "  mouse "})
	require.NoError(t, err)
	assert.Equal(t, "name=mouse&sort=desc", gotQuery)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "2", products[1].ID)
	assert.Equal(t, []string{"black"}, products[0].Colors)
}

func TestHTTPProductRepository_SearchOmitsBlankName(t *testing.T) {
	var gotQuery string
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`null`))
	})

	products, err := repo.Search(context.Background(), models.SearchQuery{Name: "   ", Sort: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, "sort=asc", gotQuery)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestHTTPProductRepository_GetByIDNotFound(t *testing.T) {
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Product not found"}`))
	})

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "Product not found", statusErr.Message())
}

func TestHTTPProductRepository_GetByIDEmptySuccessBody(t *testing.T) {
	for name, body := range map[string]string{"null": `null`, "empty": ``, "object": `{}`} {
		t.Run(name, func(t *testing.T) {
			repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			product, err := repo.GetByID(context.Background(), "gone")
			assert.Nil(t, product)
			assert.True(t, errors.Is(err, ErrProductNotFound))
		})
	}
}

func TestHTTPProductRepository_CreateSendsPayload(t *testing.T) {
	var got models.ProductPayload
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"new-id","name":"Keyboard","price":1500,"description":"Mechanical keyboard","colors":["white","black"]}`))
	})

	payload := models.ProductPayload{
		Name:        "Keyboard",
		Price:       1500,
		Description: "Mechanical keyboard",
		Colors:      []string{"white", "black"},
	}
	product, err := repo.Create(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "new-id", product.ID)
}

func TestHTTPProductRepository_UpdateValidationMessages(t *testing.T) {
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/products/abc", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":["name too short","price must be positive"]}`))
	})

	_, err := repo.Update(context.Background(), "abc", models.ProductPayload{Name: "ab"})
	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "name too short, price must be positive", statusErr.Message())
	assert.False(t, errors.Is(err, ErrProductNotFound))
}

func TestHTTPProductRepository_UpdateEmptyBody(t *testing.T) {
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	product, err := repo.Update(context.Background(), "abc", models.ProductPayload{Name: "Desk", Price: 10})
	require.NoError(t, err)
	assert.Equal(t, "abc", product.ID)
	assert.Equal(t, "Desk", product.Name)
}

func TestHTTPProductRepository_Delete(t *testing.T) {
	called := false
	repo := newTestHTTPRepo(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/products/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"deleted"}`))
	})

	require.NoError(t, repo.Delete(context.Background(), "abc"))
	assert.True(t, called)
}

func TestHTTPProductRepository_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	repo := NewHTTPProductRepository(url, httpclient.New("inventory", httpclient.DefaultConfig(), logger.Discard()))
	_, err := repo.Search(context.Background(), models.SearchQuery{})
	assert.Error(t, err)
}
