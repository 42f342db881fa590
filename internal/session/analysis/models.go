package analysis

import (
	"symptom-checker/internal/models"
	"symptom-checker/internal/session/graph"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// Tier is the presentation salience of a prediction.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

type ClassifiedPrediction struct {
	models.Prediction
	Tier          Tier
	LowConfidence bool
	Advisory      string
}

// Result is the outcome of one analyze round trip. Failures carry a
// synthetic result with Failed set, so renderers always get the same shape.
type Result struct {
	Predictions      []ClassifiedPrediction
	EmergencyWarning *string
	Disclaimer       string
	Payload          *models.GraphPayload
	Graph            *graph.RenderGraph
	Failed           bool
	Err              error
}

// NoMatches reports a successful analysis that matched nothing, as opposed
// to a failed request.
func (r *Result) NoMatches() bool {
	return r != nil && !r.Failed && len(r.Predictions) == 0
}

// State is the orchestrator's read-only snapshot.
type State struct {
	Phase    Phase
	Symptoms []string
	Profile  models.Profile
	Result   *Result
}
