package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError_StringMessage(t *testing.T) {
	err := ParseResponseError(newResponse(400, `{"message":"name must be unique"}`), "inventory")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Status)
	assert.Equal(t, "name must be unique", se.Message())
	assert.True(t, se.IsClientError())
}

func TestParseResponseError_ListMessage(t *testing.T) {
	err := ParseResponseError(newResponse(400, `{"message":["price must not be greater than 5000","name too short"]}`), "inventory")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "price must not be greater than 5000, name too short", se.Message())
	assert.Contains(t, se.Error(), "status 400")
}

func TestParseResponseError_PlainAndEmptyBodies(t *testing.T) {
	var se *StatusError

	err := ParseResponseError(newResponse(502, "bad gateway"), "inventory")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"bad gateway"}, se.Messages)

	err = ParseResponseError(newResponse(404, ""), "inventory")
	require.True(t, errors.As(err, &se))
	assert.Empty(t, se.Messages)
	assert.Equal(t, "inventory returned status 404", se.Error())
}

func TestClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New("inventory", DefaultConfig(), nil)
	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCircuitBreaker_ServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database down"}`))
	}))
	defer srv.Close()

	cfg := DefaultCircuitBreakerConfig("inventory-test")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	cb := NewCircuitBreakerClient(New("inventory", DefaultConfig(), nil), cfg, nil)

	for i := 0; i < 2; i++ {
		req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		_, err = cb.Do(context.Background(), req)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "database down", se.Message())
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = cb.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCircuitBreaker_ClientErrorsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New("inventory", DefaultConfig(), nil), DefaultCircuitBreakerConfig("inventory-404"), nil)
	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := cb.Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
