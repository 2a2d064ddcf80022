package ranking

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine similarity of two embeddings clamped to [0,1].
//
// ok is false when either vector is absent or has zero norm; the caller treats
// the semantic dimension as unavailable. Vectors of different length, or
// containing NaN or Inf, are an error.
func CosineSimilarity(a, b []float64) (score float64, ok bool, err error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false, nil
	}
	if len(a) != len(b) {
		return 0, false, &DimensionError{
			Dimension: "semantic",
			Message:   fmt.Sprintf("embedding dimensions differ: %d vs %d", len(a), len(b)),
		}
	}

	var dot, normA, normB float64
	for i := range a {
		if !finite(a[i]) || !finite(b[i]) {
			return 0, false, &DimensionError{
				Dimension: "semantic",
				Message:   fmt.Sprintf("embedding component %d is not finite", i),
			}
		}
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false, nil
	}

	return clamp(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true, nil
}

// ValidEmbedding reports whether every component of v is finite.
func ValidEmbedding(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
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
