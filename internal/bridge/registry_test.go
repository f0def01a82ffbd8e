package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/tutorstack/internal/log"
)

func TestRegistryClient_Register(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewRegistryClient(srv.URL, log.NewNop())
	require.NoError(t, err)

	err = client.Register(context.Background(), ServiceEntry{
		Name:      "catalog",
		Kind:      "sdk",
		URL:       "http://127.0.0.1:8094",
		Transient: true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/services/catalog", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "sdk", gotBody["kind"])
	assert.Equal(t, "http://127.0.0.1:8094", gotBody["url"])
	assert.Equal(t, true, gotBody["transient"])
}

func TestRegistryClient_RegisterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "duplicate service", http.StatusConflict)
	}))
	defer srv.Close()

	client, err := NewRegistryClient(srv.URL, log.NewNop())
	require.NoError(t, err)

	err = client.Register(context.Background(), ServiceEntry{Name: "catalog", Kind: "sdk", URL: "http://127.0.0.1:8094"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate service")
}

func TestNewRegistryClient_Validation(t *testing.T) {
	_, err := NewRegistryClient("", log.NewNop())
	assert.Error(t, err)
}
