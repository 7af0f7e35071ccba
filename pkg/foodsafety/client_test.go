package foodsafety

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/llm/query", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req QueryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Is tuna safe?", req.Query)
		assert.Equal(t, "food", req.Context)

		w.Write([]byte(`{"answer":"Yes, in moderation.","sources":[{"id":"1","name":"Tuna"}],"recalls":[],"advisories":[{"state":"Minnesota","fish_species":"Walleye"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", Token: "tok"})
	require.NoError(t, err)

	resp, err := c.Query(context.Background(), QueryRequest{Query: "Is tuna safe?", Context: "food"})
	require.NoError(t, err)
	assert.Equal(t, "Yes, in moderation.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Tuna", resp.Sources[0].Name)
	assert.Empty(t, resp.Recalls)
	require.Len(t, resp.Advisories, 1)
	assert.Equal(t, "Walleye", resp.Advisories[0].FishSpecies)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_input","detail":"Query must be at least 3 characters long"}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Query(context.Background(), QueryRequest{Query: "hi"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_input", apiErr.Code)
	assert.Equal(t, "Query must be at least 3 characters long", apiErr.Detail)
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Detail)
}

func TestClient_ExamplesAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/llm/examples":
			w.Write([]byte(`{"examples":[{"category":"Recalls","queries":["Any recalls for lettuce?"]}],"tips":["Be specific"]}`))
		case "/health":
			w.Write([]byte(`{"status":"healthy","service":"foodsafety-api"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	ex, err := c.Examples(context.Background())
	require.NoError(t, err)
	require.Len(t, ex.Examples, 1)
	assert.Equal(t, "Recalls", ex.Examples[0].Category)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "not a url"})
	assert.Error(t, err)
}
