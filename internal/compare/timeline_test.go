package compare

import (
	"testing"
	"time"

	"github.com/moduway/moduway-go/internal/storage"
)

var timelineNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// timelineCourse builds a course whose required/available ratio against 10
// weekly hours equals playtimeMinutes/600.
func timelineCourse(weeks, playtimeMinutes *float64, studyEnd *time.Time) *storage.Course {
	return &storage.Course{
		ID:              1,
		Name:            "테스트 강좌",
		Weeks:           weeks,
		PlaytimeMinutes: playtimeMinutes,
		StudyEnd:        studyEnd,
	}
}

func fp(v float64) *float64 { return &v }

func TestTimelineThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name            string
		playtimeMinutes float64
		want            TimelineStatus
	}{
		{"ratio 0.5 comfortable", 300, TimelineComfortable},
		{"ratio exactly 0.8 comfortable", 480, TimelineComfortable},
		{"ratio 1.0 on pace", 600, TimelineOnPace},
		{"ratio exactly 1.2 on pace", 720, TimelineOnPace},
		{"ratio 1.2001 tight", 720.06, TimelineTight},
		{"ratio 2.0 tight", 1200, TimelineTight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := timelineCourse(fp(1), fp(tt.playtimeMinutes), nil)
			result := SimulateTimeline(course, 10, timelineNow)
			if result.Status != tt.want {
				t.Errorf("Expected %s, got %s (ratio %v)", tt.want, result.Status, result.Ratio)
			}
			if result.Ratio == nil || result.RequiredHoursPerWeek == nil {
				t.Error("Expected ratio and required hours to be populated")
			}
		})
	}
}

func TestTimelineZeroWeeksUndeterminable(t *testing.T) {
	result := SimulateTimeline(timelineCourse(fp(0), fp(600), nil), 10, timelineNow)
	if result.Status != TimelineUndeterminable {
		t.Errorf("Expected undeterminable, got %s", result.Status)
	}
	if result.Ratio != nil {
		t.Errorf("Expected nil ratio, got %v", *result.Ratio)
	}
}

func TestTimelineMissingRuntimeUndeterminable(t *testing.T) {
	result := SimulateTimeline(timelineCourse(fp(8), nil, nil), 10, timelineNow)
	if result.Status != TimelineUndeterminable {
		t.Errorf("Expected undeterminable, got %s", result.Status)
	}
}

func TestTimelineEndedOverridesRatio(t *testing.T) {
	past := timelineNow.AddDate(0, -1, 0)
	result := SimulateTimeline(timelineCourse(fp(1), fp(300), &past), 10, timelineNow)
	if result.Status != TimelineEnded {
		t.Errorf("Expected ended, got %s", result.Status)
	}
	if result.Ratio == nil {
		t.Error("Expected ratio to still be included for an ended course")
	}
}

func TestTimelineFutureEndKeepsVerdict(t *testing.T) {
	future := timelineNow.AddDate(0, 1, 0)
	result := SimulateTimeline(timelineCourse(fp(1), fp(300), &future), 10, timelineNow)
	if result.Status != TimelineComfortable {
		t.Errorf("Expected comfortable, got %s", result.Status)
	}
}

func TestTimelineRequiredHoursRounded(t *testing.T) {
	// 500 minutes over 3 weeks = 2.7777... h/week, rounded to 2.78
	result := SimulateTimeline(timelineCourse(fp(3), fp(500), nil), 10, timelineNow)
	if result.RequiredHoursPerWeek == nil || *result.RequiredHoursPerWeek != 2.78 {
		t.Errorf("Expected required hours 2.78, got %v", result.RequiredHoursPerWeek)
	}
}
