package search

import (
	"testing"

	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/storage"
)

func buildTestIndex(t *testing.T, courses []*storage.Course) *KeywordIndex {
	t.Helper()
	idx := NewKeywordIndex(logger.New("error"))
	if err := idx.Build(courses); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestKeywordSearchRanksNameAboveSummary(t *testing.T) {
	idx := buildTestIndex(t, []*storage.Course{
		{ID: 1, Name: "파이썬 기초", Summary: "프로그래밍 입문 과정"},
		{ID: 2, Name: "웹 개발 입문", Summary: "파이썬 기반 백엔드 개발을 다룹니다"},
		{ID: 3, Name: "포토샵 강의", Summary: "그래픽 디자인"},
	})

	results, err := idx.Search("파이썬", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(results))
	}
	if results[0].CourseID != 1 {
		t.Errorf("Expected name match to rank first, got course %d", results[0].CourseID)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", results[0].Rank, results[1].Rank)
	}
}

func TestKeywordSearchDeduplicatesDocuments(t *testing.T) {
	// Name and summary both match: one result per course
	idx := buildTestIndex(t, []*storage.Course{
		{ID: 1, Name: "데이터 분석", Summary: "데이터 분석을 배웁니다"},
	})

	results, err := idx.Search("데이터 분석", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 deduplicated result, got %d", len(results))
	}
}

func TestKeywordSearchTopN(t *testing.T) {
	courses := []*storage.Course{
		{ID: 1, Name: "요리 기초 1"},
		{ID: 2, Name: "요리 기초 2"},
		{ID: 3, Name: "요리 기초 3"},
	}
	idx := buildTestIndex(t, courses)

	results, err := idx.Search("요리", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected topN=2 results, got %d", len(results))
	}
}

func TestKeywordSearchEmptyQuery(t *testing.T) {
	idx := buildTestIndex(t, []*storage.Course{{ID: 1, Name: "과정"}})

	results, err := idx.Search("   ", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results != nil {
		t.Errorf("Expected nil results for blank query, got %v", results)
	}
}

func TestKeywordSearchBeforeBuild(t *testing.T) {
	idx := NewKeywordIndex(logger.New("error"))

	results, err := idx.Search("파이썬", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results != nil {
		t.Error("Expected nil results before Build")
	}
	if idx.Ready() {
		t.Error("Expected Ready() = false before Build")
	}
}

func TestKeywordSearchEnglishWords(t *testing.T) {
	idx := buildTestIndex(t, []*storage.Course{
		{ID: 1, Name: "Go Programming", Summary: "concurrency and channels"},
		{ID: 2, Name: "Rust Programming"},
	})

	results, err := idx.Search("go", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].CourseID != 1 {
		t.Errorf("Expected only the Go course, got %v", results)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"english words", "Go Programming", []string{"go", "programming"}},
		{"hangul bigrams", "분석", []string{"분", "분석", "석"}},
		{"mixed", "AI 강좌", []string{"ai", "강", "강좌", "좌"}},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
