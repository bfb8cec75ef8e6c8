package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songbook/database"
)

func TestHealthCheck(t *testing.T) {
	r := newRouter(database.NewMemoryStore())

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Backend is running"}`, w.Body.String())
}

func TestHealthCheck_StoreDown(t *testing.T) {
	r := newRouter(&brokenStore{err: errors.New("no reachable servers")})

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "reachable servers")
}

func TestOpenAPIAndDocs(t *testing.T) {
	r := newRouter(database.NewMemoryStore())

	w := do(t, r, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, doc["paths"], "/api/songs/stats")

	w = do(t, r, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/openapi.json")
}
