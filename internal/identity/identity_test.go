package identity

import (
	"testing"
	"time"

	"github.com/moduway/moduway-go/internal/storage"
)

func datePtr(s string) *time.Time {
	t, err := time.Parse(storage.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  파이썬 기초  ", "파이썬 기초"},
		{"case folds", "Go Programming", "go programming"},
		{"full-width compatibility", "Ｇｏ", "go"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeySeparatesComponents(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Keys with shifted boundaries should differ")
	}
	if Key("데이터 분석", "이영희") != Key("  데이터 분석", "이영희  ") {
		t.Error("Whitespace variants should share a key")
	}
}

func TestCollapseByRelevancePreservesOrder(t *testing.T) {
	courses := []*storage.Course{
		{ID: 3, Name: "데이터 분석", Instructor: "이영희"},
		{ID: 1, Name: "파이썬 기초", Instructor: "김철수"},
		{ID: 7, Name: "데이터 분석", Instructor: "이영희", StudyStart: datePtr("2026-03-01")},
		{ID: 5, Name: "파이썬 기초", Instructor: "박민수"},
	}

	result := CollapseByRelevance(courses)
	if len(result) != 3 {
		t.Fatalf("Expected 3 courses, got %d", len(result))
	}
	// First occurrence wins even when a later duplicate is more recent
	if result[0].ID != 3 || result[1].ID != 1 || result[2].ID != 5 {
		t.Errorf("Unexpected order: %d, %d, %d", result[0].ID, result[1].ID, result[2].ID)
	}
}

func TestCollapseByRecencyKeepsLatestOffering(t *testing.T) {
	courses := []*storage.Course{
		{ID: 1, Name: "데이터 분석", Instructor: "이영희", StudyStart: datePtr("2025-09-01")},
		{ID: 2, Name: "데이터 분석", Instructor: "이영희", StudyStart: datePtr("2026-03-01")},
		{ID: 3, Name: "데이터 분석", Instructor: "이영희"},
		{ID: 4, Name: "파이썬 기초", Instructor: "김철수"},
	}

	result := CollapseByRecency(courses)
	if len(result) != 2 {
		t.Fatalf("Expected 2 courses, got %d", len(result))
	}
	if result[0].ID != 2 {
		t.Errorf("Expected the dated 2026 offering to win, got id %d", result[0].ID)
	}
	if result[1].ID != 4 {
		t.Errorf("Expected unrelated course to survive, got id %d", result[1].ID)
	}
}

func TestCollapseByRecencyNilStartsLose(t *testing.T) {
	courses := []*storage.Course{
		{ID: 1, Name: "과정", Instructor: "강사"},
		{ID: 2, Name: "과정", Instructor: "강사", StudyStart: datePtr("2020-01-01")},
	}

	result := CollapseByRecency(courses)
	if len(result) != 1 || result[0].ID != 2 {
		t.Errorf("Expected dated offering to beat undated one, got %+v", result[0])
	}
}

func TestCollapseByRecencyTieBreaksOnID(t *testing.T) {
	courses := []*storage.Course{
		{ID: 1, Name: "과정", Instructor: "강사", StudyStart: datePtr("2026-03-01")},
		{ID: 2, Name: "과정", Instructor: "강사", StudyStart: datePtr("2026-03-01")},
	}

	result := CollapseByRecency(courses)
	if len(result) != 1 || result[0].ID != 2 {
		t.Errorf("Expected higher id to win the tie, got id %d", result[0].ID)
	}

	// All-nil identity group falls back to id too
	courses = []*storage.Course{
		{ID: 5, Name: "과정", Instructor: "강사"},
		{ID: 9, Name: "과정", Instructor: "강사"},
	}
	result = CollapseByRecency(courses)
	if len(result) != 1 || result[0].ID != 9 {
		t.Errorf("Expected higher id to win among undated rows, got id %d", result[0].ID)
	}
}

func TestCollapseIdempotent(t *testing.T) {
	courses := []*storage.Course{
		{ID: 1, Name: "데이터 분석", Instructor: "이영희", StudyStart: datePtr("2025-09-01")},
		{ID: 2, Name: "데이터 분석", Instructor: "이영희", StudyStart: datePtr("2026-03-01")},
	}

	once := CollapseByRecency(courses)
	twice := CollapseByRecency(once)
	if len(once) != len(twice) {
		t.Fatalf("Collapse is not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("Collapse changed result on second pass at %d", i)
		}
	}
}
