// Package compare implements the course comparison pipeline: match scoring
// against user preferences, timeline feasibility, review sentiment
// aggregation, and the two narrative payloads (personalized comment, review
// summary) generated per course. A single request fans out across courses,
// isolates narrative failures behind fixed fallback payloads, and returns
// results sorted by match score.
package compare

import (
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/storage"
)

// Request bounds.
const (
	// MaxCoursesPerRequest caps how many courses one comparison may cover.
	MaxCoursesPerRequest = 3
	// MinWeeklyHours and MaxWeeklyHours bound the declared study budget.
	MinWeeklyHours = 1
	MaxWeeklyHours = 168
	// PreferenceDimensions is the length of the preference vector, matching
	// the four AI rating axes.
	PreferenceDimensions = 4
	// MinPreference and MaxPreference bound each preference component.
	MinPreference = 0
	MaxPreference = 5
	// MinUserGoalLength and MaxUserGoalLength bound the free-text learning
	// goal, in runes.
	MinUserGoalLength = 10
	MaxUserGoalLength = 1000
)

// Request is a single comparison request. User preferences share the 0-5
// scale of the AI quality ratings.
type Request struct {
	CourseIDs       []int64 `json:"course_ids"`
	WeeklyHours     int     `json:"weekly_hours"`
	UserPreferences []int   `json:"user_preferences"`
	UserGoal        string  `json:"user_goal"`
}

// Reliability verdicts for sentiment and review summaries.
const (
	ReliabilityHigh = "high"
	ReliabilityLow  = "low"
)

// SentimentResult summarizes the labeled reviews of one course.
type SentimentResult struct {
	PositiveRatio float64 `json:"positive_ratio"`
	ReviewCount   int     `json:"review_count"`
	Reliability   string  `json:"reliability"`
}

// TimelineStatus classifies how a course fits the user's weekly schedule.
type TimelineStatus string

const (
	TimelineComfortable    TimelineStatus = "comfortable"
	TimelineOnPace         TimelineStatus = "on_pace"
	TimelineTight          TimelineStatus = "tight"
	TimelineEnded          TimelineStatus = "ended"
	TimelineUndeterminable TimelineStatus = "undeterminable"
)

// TimelineResult carries the feasibility verdict plus the raw numbers so a
// consumer can re-derive or override it.
type TimelineResult struct {
	Status               TimelineStatus `json:"status"`
	RequiredHoursPerWeek *float64       `json:"required_hours_per_week,omitempty"`
	Ratio                *float64       `json:"ratio,omitempty"`
	WeeklyHours          int            `json:"weekly_hours"`
}

// ReviewDigest is the review summary payload returned to clients. The
// narrative body may be a fixed fallback when generation fails or no reviews
// exist; the surrounding fields are always populated.
type ReviewDigest struct {
	CourseID       int64               `json:"course_id"`
	CourseName     string              `json:"course_name"`
	ReviewSummary  genai.ReviewSummary `json:"review_summary"`
	ReviewCount    int                 `json:"review_count"`
	Reliability    string              `json:"reliability"`
	WarningMessage string              `json:"warning_message,omitempty"`
}

// Result is one course's comparison record.
type Result struct {
	Course              *storage.Course       `json:"course"`
	AIRating            *storage.AIRating     `json:"ai_rating"`
	MatchScore          float64               `json:"match_score"`
	Sentiment           SentimentResult       `json:"sentiment"`
	Timeline            TimelineResult        `json:"timeline"`
	PersonalizedComment *genai.Recommendation `json:"personalized_comment"`
	ReviewSummary       *ReviewDigest         `json:"review_summary"`
}

// Response is the ordered comparison result set, highest match score first.
type Response struct {
	Results []*Result `json:"results"`
}
