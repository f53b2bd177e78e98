package embedding

import "math"

// NormalizeVector scales a vector to unit length so cosine similarity can be
// computed as a plain dot product. Providers that already return normalized
// vectors pass through unchanged within float tolerance.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
