package confidence

import (
	"strings"
)

// Weights control how the component signals combine into one score.
type Weights struct {
	Classification float64
	Retrieval      float64
	Context        float64
}

// DefaultWeights favor the classifier signal over retrieval and context.
var DefaultWeights = Weights{
	Classification: 0.4,
	Retrieval:      0.35,
	Context:        0.25,
}

// Score combines classifier confidence, retrieval score, and context
// relevance into one number, clamped to [0, 1].
func Score(classificationConfidence, retrievalScore, contextRelevance float64, w Weights) float64 {
	score := classificationConfidence*w.Classification +
		retrievalScore*w.Retrieval +
		contextRelevance*w.Context
	return clamp(score)
}

// ShouldClarify reports whether another clarifying question is warranted.
// Once the loop bound is reached, clarification stops regardless of confidence.
func ShouldClarify(confidence, threshold float64, clarificationCount, maxClarifications int) bool {
	if clarificationCount >= maxClarifications {
		return false
	}
	return confidence < threshold
}

// AggregateDocumentScores collapses ranked retrieval scores into one signal,
// weighting top-ranked documents more heavily.
func AggregateDocumentScores(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	var weightedSum, totalWeight float64
	for i, score := range scores {
		w := 1.0 / float64(i+1)
		weightedSum += score * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// criticalFields carry a higher missing-information penalty.
var criticalFields = []string{"date", "location", "amount", "party"}

// MissingFieldsPenalty converts a missing-fields list into a confidence
// penalty, capped at 0.5.
func MissingFieldsPenalty(missingFields []string) float64 {
	if len(missingFields) == 0 {
		return 0.0
	}

	penalty := float64(len(missingFields)) * 0.1
	if penalty > 0.5 {
		penalty = 0.5
	}

	for _, field := range missingFields {
		lower := strings.ToLower(field)
		for _, critical := range criticalFields {
			if strings.Contains(lower, critical) {
				penalty += 0.05
				break
			}
		}
	}

	if penalty > 0.5 {
		penalty = 0.5
	}
	return penalty
}

// LevelFor converts a score into a coarse human-readable level.
func LevelFor(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "very_high"
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.5:
		return "medium"
	case confidence >= 0.3:
		return "low"
	default:
		return "very_low"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
