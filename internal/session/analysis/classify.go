package analysis

import (
	"math"

	"symptom-checker/internal/models"
)

const (
	highConfidenceThreshold   = 70.0
	mediumConfidenceThreshold = 40.0
	lowConfidenceThreshold    = 30.0

	LowConfidenceAdvisory = "Low confidence match. This disease only partially matches your symptoms."
)

// Classify clamps confidence to [0,100] and assigns the salience tier.
// The low-confidence flag is independent of the tier, so an emergency
// prediction can still carry it.
func Classify(p models.Prediction) ClassifiedPrediction {
	p.Confidence = clampConfidence(p.Confidence)
	p.MatchingSymptoms = append([]string(nil), p.MatchingSymptoms...)
	if p.TotalSymptoms < len(p.MatchingSymptoms) {
		p.TotalSymptoms = len(p.MatchingSymptoms)
	}

	cp := ClassifiedPrediction{Prediction: p}
	switch {
	case p.Emergency || p.Confidence > highConfidenceThreshold:
		cp.Tier = TierHigh
	case p.Confidence > mediumConfidenceThreshold:
		cp.Tier = TierMedium
	default:
		cp.Tier = TierLow
	}
	if p.Confidence < lowConfidenceThreshold {
		cp.LowConfidence = true
		cp.Advisory = LowConfidenceAdvisory
	}
	return cp
}

func ClassifyAll(preds []models.Prediction) []ClassifiedPrediction {
	out := make([]ClassifiedPrediction, len(preds))
	for i, p := range preds {
		out[i] = Classify(p)
	}
	return out
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
