package registry

import "encoding/json"

// EndpointRegistry describes the inference service endpoints the client may call.
type EndpointRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Endpoints   []Endpoint `json:"endpoints"`
}

type Endpoint struct {
	ID             string          `json:"id"`
	DisplayName    string          `json:"displayName"`
	Description    string          `json:"description"`
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	RequestSchema  json.RawMessage `json:"requestSchema,omitempty"`
	ResponseSchema json.RawMessage `json:"responseSchema"`
	ErrorCodes     []string        `json:"errorCodes"`
	Tags           []string        `json:"tags"`
}

// Endpoint ids.
const (
	EndpointAutocomplete = "autocomplete"
	EndpointAnalyze      = "analyze"
	EndpointDoctors      = "doctors-recommend"
	EndpointHealth       = "health"
)
