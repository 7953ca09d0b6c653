package storage

import (
	"errors"
	"time"
)

// Common errors
var (
	// ErrNotFound is returned when a resource is not found in the database
	ErrNotFound = errors.New("resource not found")
)

// DateLayout is the storage format for catalog dates.
const DateLayout = "2006-01-02"

// Course represents a catalog course record. (name, instructor) pairs are
// not unique: repeated offerings of the same course appear as separate rows
// and are collapsed by the identity resolver before reaching a user.
type Course struct {
	ID                int64      `json:"id"`
	ExternalID        string     `json:"external_id"`
	Name              string     `json:"name"`
	Instructor        string     `json:"instructor,omitempty"`
	OrgName           string     `json:"org_name,omitempty"`
	Category          string     `json:"category,omitempty"`
	Subcategory       string     `json:"subcategory,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	URL               string     `json:"url,omitempty"`
	ImageURL          string     `json:"image_url,omitempty"`
	EnrollmentStart   *time.Time `json:"enrollment_start,omitempty"`
	EnrollmentEnd     *time.Time `json:"enrollment_end,omitempty"`
	StudyStart        *time.Time `json:"study_start,omitempty"`
	StudyEnd          *time.Time `json:"study_end,omitempty"`
	Weeks             *float64   `json:"weeks,omitempty"`
	PlaytimeMinutes   *float64   `json:"playtime_minutes,omitempty"`
	AvgExternalRating *float64   `json:"avg_external_rating,omitempty"`
	CreatedAt         int64      `json:"created_at"`
	UpdatedAt         int64      `json:"updated_at"`
}

// CourseListItem is a Course annotated with review aggregates for list views.
type CourseListItem struct {
	Course
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Review represents a learner review. Sentiment fields are produced by an
// upstream batch classifier and are read-only here.
type Review struct {
	ID             int64    `json:"id"`
	CourseID       int64    `json:"course_id"`
	UserName       string   `json:"user_name,omitempty"`
	Content        string   `json:"content"`
	Rating         int      `json:"rating"`
	SentimentLabel *string  `json:"sentiment_label,omitempty"`
	SentimentProb  *float64 `json:"sentiment_prob,omitempty"`
	CreatedAt      int64    `json:"created_at"`
}

// SentimentLabelPositive is the positive class emitted by the upstream classifier.
const SentimentLabelPositive = "positive"

// LabeledReview is the (label, probability) projection consumed by the
// sentiment aggregator.
type LabeledReview struct {
	Label       string
	Probability float64
}

// AIRating holds the generated per-course quality ratings (0.0-5.0 scale).
// One-to-one with Course; produced by an out-of-scope generation job.
type AIRating struct {
	CourseID         int64   `json:"course_id"`
	Summary          string  `json:"summary,omitempty"`
	TheoryRating     float64 `json:"theory_rating"`
	PracticalRating  float64 `json:"practical_rating"`
	DifficultyRating float64 `json:"difficulty_rating"`
	DurationRating   float64 `json:"duration_rating"`
	AverageRating    float64 `json:"average_rating"`
	ModelVersion     string  `json:"model_version,omitempty"`
	PromptVersion    string  `json:"prompt_version,omitempty"`
	CreatedAt        int64   `json:"created_at"`
	UpdatedAt        int64   `json:"updated_at"`
}

// Vector returns the four ratings as a fixed-order slice for distance math.
func (r *AIRating) Vector() [4]float64 {
	return [4]float64{r.TheoryRating, r.PracticalRating, r.DifficultyRating, r.DurationRating}
}
