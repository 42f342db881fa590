package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker/pkg/registry"
)

func TestCheckEndpoints_Default(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	assert.NoError(t, checkEndpoints(reg))
}

func TestCheckEndpoints_Rejects(t *testing.T) {
	base := func() *registry.EndpointRegistry {
		reg, err := registry.Default()
		require.NoError(t, err)
		return reg
	}

	dup := base()
	dup.Endpoints = append(dup.Endpoints, dup.Endpoints[0])
	assert.ErrorContains(t, checkEndpoints(dup), "duplicate")

	method := base()
	method.Endpoints[0].Method = "DELETE"
	assert.ErrorContains(t, checkEndpoints(method), "unsupported method")

	path := base()
	path.Endpoints[0].Path = "analyze"
	assert.ErrorContains(t, checkEndpoints(path), "path must start")

	schema := base()
	schema.Endpoints[0].ResponseSchema = json.RawMessage(`{"type": 12}`)
	assert.ErrorContains(t, checkEndpoints(schema), "invalid responseSchema")
}

func TestUpdateEndpoint_RoundTrip(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	registryPath = filepath.Join(t.TempDir(), "endpoints.json")
	require.NoError(t, saveRegistry(reg, registryPath))

	require.NoError(t, updateEndpoint(registry.EndpointAnalyze, "path", "/v2/analyze"))
	require.Error(t, updateEndpoint("missing", "path", "/x"))
	require.Error(t, updateEndpoint(registry.EndpointAnalyze, "colour", "red"))

	updated, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	ep, ok := updated.Find(registry.EndpointAnalyze)
	require.True(t, ok)
	assert.Equal(t, "/v2/analyze", ep.Path)
	assert.NotEqual(t, reg.LastUpdated, updated.LastUpdated)
}
