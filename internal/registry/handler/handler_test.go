package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miecredit/internal/registry"
)

func TestHandleList(t *testing.T) {
	dir := t.TempDir()
	for _, version := range []string{"v2", "v1"} {
		err := registry.SavePackage(dir, registry.ModelPackage{
			Version: version,
			Model:   registry.LinearModel{FeatureNames: []string{"a"}, Weights: map[string]float64{"a": 1}},
			Metadata: registry.Metadata{
				Version:   version,
				Approved:  version == "v1",
				CreatedAt: time.Now().UTC(),
			},
		}, "")
		require.NoError(t, err)
	}

	r := chi.NewRouter()
	New(dir, "v1", slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dir, resp.RegistryDir)
	assert.Equal(t, "v1", resp.ActiveModelVersion)
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "v1", resp.Models[0].Version)
	assert.True(t, resp.Models[0].Approved)
}

func TestHandleListEmptyRegistry(t *testing.T) {
	r := chi.NewRouter()
	New(t.TempDir()+"/missing", "v1", slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"models":[]`)
}
