package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed endpoints.json
var defaultRegistry []byte

// LoadRegistry reads a registry file. An empty path yields the built-in registry.
func LoadRegistry(path string) (*EndpointRegistry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// Default returns the registry compiled into the binary.
func Default() (*EndpointRegistry, error) {
	return parse(defaultRegistry)
}

func parse(data []byte) (*EndpointRegistry, error) {
	var reg EndpointRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse endpoint registry: %w", err)
	}
	for _, id := range []string{EndpointAutocomplete, EndpointAnalyze, EndpointDoctors, EndpointHealth} {
		if _, ok := reg.Find(id); !ok {
			return nil, fmt.Errorf("endpoint registry missing %q", id)
		}
	}
	return &reg, nil
}

// Find returns the endpoint with id.
func (r *EndpointRegistry) Find(id string) (Endpoint, bool) {
	for _, ep := range r.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}
