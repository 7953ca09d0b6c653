package compare

import (
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/storage"
)

// AggregateSentiment reduces per-review sentiment labels to a positive ratio
// plus a reliability verdict. Reliability is high once at least
// HighReliabilityMinReviews labeled reviews exist. Zero reviews is a valid
// state and returns {0.0, 0, low}.
func AggregateSentiment(reviews []storage.LabeledReview) SentimentResult {
	result := SentimentResult{Reliability: ReliabilityLow}
	if len(reviews) == 0 {
		return result
	}

	positive := 0
	for _, r := range reviews {
		if r.Label == storage.SentimentLabelPositive {
			positive++
		}
	}

	result.ReviewCount = len(reviews)
	result.PositiveRatio = round2(float64(positive) / float64(len(reviews)))
	if result.ReviewCount >= genai.HighReliabilityMinReviews {
		result.Reliability = ReliabilityHigh
	}
	return result
}
