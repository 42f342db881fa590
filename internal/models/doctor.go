package models

import "strings"

// Doctor is a directory entry returned by the recommendation endpoint.
type Doctor struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialization  string   `json:"specialization"`
	Hospital        string   `json:"hospital"`
	Address         string   `json:"address"`
	Phone           *string  `json:"phone,omitempty"`
	Email           *string  `json:"email,omitempty"`
	Rating          float64  `json:"rating"`
	Experience      string   `json:"experience"`
	DiseasesTreated []string `json:"diseases_treated"`
	Availability    string   `json:"availability"`
	Fees            string   `json:"fees"`
}

type DoctorResponse struct {
	Disease            string   `json:"disease"`
	RecommendedDoctors []Doctor `json:"recommended_doctors"`
	Location           string   `json:"location,omitempty"`
	Disclaimer         string   `json:"disclaimer,omitempty"`
}

// HealthStatus is the GET /health response body.
type HealthStatus struct {
	API       string `json:"api"`
	Neo4j     string `json:"neo4j"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether the API and its graph store are both up. The store
// status may carry a node count, e.g. "connected (412 nodes)".
func (h HealthStatus) Healthy() bool {
	return h.API == "healthy" && strings.HasPrefix(h.Neo4j, "connected")
}
