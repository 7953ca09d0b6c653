package compare

import (
	"math"

	"github.com/moduway/moduway-go/internal/storage"
)

// Match score mapping. On the 0-5 scale the largest possible 4-D Euclidean
// distance is sqrt(4*25) = 10, so dividing by distanceScale normalizes the
// distance to [0, 1] before inverting it.
const (
	// MaxMatchScore is the best attainable score, awarded at distance zero.
	MaxMatchScore = 5.0

	distanceScale = 10.0
)

// MatchScore maps the Euclidean distance between a course's AI ratings and
// the user's preference vector to a similarity score in [0, MaxMatchScore].
// Lower distance means a higher score, so the result is usable directly as a
// descending sort key. The result is rounded to two decimals.
func MatchScore(rating *storage.AIRating, preferences [PreferenceDimensions]int) float64 {
	v := rating.Vector()

	var sum float64
	for i := range v {
		d := v[i] - float64(preferences[i])
		sum += d * d
	}
	distance := math.Sqrt(sum)

	score := MaxMatchScore * (1 - distance/distanceScale)
	if score < 0 {
		score = 0
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
