package compare

import (
	"time"

	"github.com/moduway/moduway-go/internal/storage"
)

// Classification thresholds on the required/available ratio. Exactly 0.8 is
// still comfortable and exactly 1.2 is still on pace.
const (
	comfortableMaxRatio = 0.8
	onPaceMaxRatio      = 1.2
)

// SimulateTimeline classifies how a course fits weeklyHours of study time.
// Required hours per week is total runtime divided by total weeks; the ratio
// against the available hours picks the verdict. A course whose study period
// already ended is "ended" regardless of ratio, and missing or zero weeks or
// runtime yields "undeterminable" instead of a division error. The computed
// numbers are included whenever they are derivable.
func SimulateTimeline(course *storage.Course, weeklyHours int, now time.Time) TimelineResult {
	result := TimelineResult{WeeklyHours: weeklyHours}

	determinable := course.Weeks != nil && *course.Weeks > 0 &&
		course.PlaytimeMinutes != nil && *course.PlaytimeMinutes > 0 &&
		weeklyHours > 0

	var ratio float64
	if determinable {
		required := (*course.PlaytimeMinutes / 60) / *course.Weeks
		ratio = required / float64(weeklyHours)
		result.RequiredHoursPerWeek = floatPtr(round2(required))
		result.Ratio = floatPtr(ratio)
	}

	switch {
	case course.StudyEnd != nil && course.StudyEnd.Before(now):
		result.Status = TimelineEnded
	case !determinable:
		result.Status = TimelineUndeterminable
	case ratio <= comfortableMaxRatio:
		result.Status = TimelineComfortable
	case ratio <= onPaceMaxRatio:
		result.Status = TimelineOnPace
	default:
		result.Status = TimelineTight
	}
	return result
}

func floatPtr(v float64) *float64 {
	return &v
}
