package compare

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/moduway/moduway-go/internal/errors"
)

// Validate checks a comparison request against the documented bounds. The
// first violation found is returned as a *errors.ValidationError; no
// external call happens before validation passes.
func (r *Request) Validate() error {
	if len(r.CourseIDs) == 0 {
		return apperrors.NewValidationError("course_ids", "at least one course id is required")
	}
	if len(r.CourseIDs) > MaxCoursesPerRequest {
		return apperrors.NewValidationError("course_ids",
			fmt.Sprintf("at most %d course ids are allowed", MaxCoursesPerRequest))
	}
	seen := make(map[int64]struct{}, len(r.CourseIDs))
	for _, id := range r.CourseIDs {
		if id <= 0 {
			return apperrors.NewValidationError("course_ids", "course ids must be positive")
		}
		if _, dup := seen[id]; dup {
			return apperrors.NewValidationError("course_ids",
				fmt.Sprintf("duplicate course id %d", id))
		}
		seen[id] = struct{}{}
	}

	if r.WeeklyHours < MinWeeklyHours || r.WeeklyHours > MaxWeeklyHours {
		return apperrors.NewValidationError("weekly_hours",
			fmt.Sprintf("must be between %d and %d", MinWeeklyHours, MaxWeeklyHours))
	}

	if len(r.UserPreferences) != PreferenceDimensions {
		return apperrors.NewValidationError("user_preferences",
			fmt.Sprintf("exactly %d values are required", PreferenceDimensions))
	}
	for _, p := range r.UserPreferences {
		if p < MinPreference || p > MaxPreference {
			return apperrors.NewValidationError("user_preferences",
				fmt.Sprintf("values must be between %d and %d", MinPreference, MaxPreference))
		}
	}

	goalLen := utf8.RuneCountInString(strings.TrimSpace(r.UserGoal))
	if goalLen < MinUserGoalLength || goalLen > MaxUserGoalLength {
		return apperrors.NewValidationError("user_goal",
			fmt.Sprintf("must be between %d and %d characters", MinUserGoalLength, MaxUserGoalLength))
	}

	return nil
}

// preferenceVector converts the validated preference slice to the fixed-size
// form the scorer consumes.
func (r *Request) preferenceVector() [PreferenceDimensions]int {
	var v [PreferenceDimensions]int
	copy(v[:], r.UserPreferences)
	return v
}
