package compare

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/moduway/moduway-go/internal/errors"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/storage"
)

// stubGenerator returns canned narrative payloads and can be told to fail
// for a specific course.
type stubGenerator struct {
	mu           sync.Mutex
	failCourseID int64
	failName     string
	recCalls     int
	sumCalls     int
}

func (s *stubGenerator) GenerateRecommendation(_ context.Context, course genai.CourseProfile, _ string) (*genai.Recommendation, error) {
	s.mu.Lock()
	s.recCalls++
	s.mu.Unlock()
	if s.failCourseID != 0 && course.ID == s.failCourseID {
		return nil, errors.New("generation backend down")
	}
	return &genai.Recommendation{
		CourseID:             course.ID,
		CourseName:           course.Name,
		RecommendationReason: "학습 목표와 잘 맞는 강좌입니다",
		KeyPoints:            []string{"실습 중심", "체계적인 커리큘럼"},
	}, nil
}

func (s *stubGenerator) GenerateReviewSummary(_ context.Context, courseName string, _ []string, _ int) (*genai.ReviewSummary, error) {
	s.mu.Lock()
	s.sumCalls++
	s.mu.Unlock()
	if s.failName != "" && courseName == s.failName {
		return nil, errors.New("generation backend down")
	}
	return &genai.ReviewSummary{
		Summary: "수강생들이 전반적으로 만족한 강좌입니다",
		Pros:    []string{"친절한 설명"},
		Cons:    []string{"과제가 많음"},
	}, nil
}

func (s *stubGenerator) Provider() genai.Provider { return genai.ProviderOpenAI }
func (s *stubGenerator) Close() error             { return nil }

// seedCatalog stores three courses with AI ratings tuned so their match
// scores against prefs {3,3,3,3} come out strictly ordered: basic > advanced
// > theory.
func seedCatalog(t *testing.T, db *storage.DB) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	weeks := 4.0
	playtime := 1200.0
	courses := []*storage.Course{
		{ExternalID: "mw-101", Name: "파이썬 기초", Instructor: "김철수", Category: "프로그래밍", Weeks: &weeks, PlaytimeMinutes: &playtime},
		{ExternalID: "mw-102", Name: "파이썬 심화", Instructor: "이영희", Category: "프로그래밍", Weeks: &weeks, PlaytimeMinutes: &playtime},
		{ExternalID: "mw-103", Name: "알고리즘 이론", Instructor: "박민수", Category: "컴퓨터과학", Weeks: &weeks, PlaytimeMinutes: &playtime},
	}
	for _, c := range courses {
		if err := db.SaveCourse(ctx, c); err != nil {
			t.Fatalf("SaveCourse failed: %v", err)
		}
	}

	all, err := db.GetAllCourses(ctx)
	if err != nil {
		t.Fatalf("GetAllCourses failed: %v", err)
	}
	ids := make(map[string]int64, len(all))
	for _, c := range all {
		ids[c.ExternalID] = c.ID
	}

	ratings := []*storage.AIRating{
		{CourseID: ids["mw-101"], TheoryRating: 3, PracticalRating: 3, DifficultyRating: 3, DurationRating: 3, AverageRating: 3},
		{CourseID: ids["mw-102"], TheoryRating: 4, PracticalRating: 4, DifficultyRating: 4, DurationRating: 4, AverageRating: 4},
		{CourseID: ids["mw-103"], TheoryRating: 5, PracticalRating: 1, DifficultyRating: 5, DurationRating: 1, AverageRating: 3},
	}
	for _, r := range ratings {
		if err := db.SaveAIRating(ctx, r); err != nil {
			t.Fatalf("SaveAIRating failed: %v", err)
		}
	}
	return ids
}

func seedReviews(t *testing.T, db *storage.DB, courseID int64, count int) {
	t.Helper()
	ctx := context.Background()
	positive := "positive"
	for i := 0; i < count; i++ {
		review := &storage.Review{
			CourseID:       courseID,
			Content:        "설명이 정말 자세하고 예제가 풍부해서 좋았습니다",
			Rating:         5,
			SentimentLabel: &positive,
		}
		if err := db.SaveReview(ctx, review); err != nil {
			t.Fatalf("SaveReview failed: %v", err)
		}
	}
}

func setupOrchestrator(t *testing.T, gen genai.Generator) (*Orchestrator, *storage.DB, map[string]int64) {
	t.Helper()
	db, err := storage.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ids := seedCatalog(t, db)
	log := logger.NewWithWriter("error", io.Discard)
	o := NewOrchestrator(db, gen, metrics.New(prometheus.NewRegistry()), log, 0)
	o.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return o, db, ids
}

func validRequest(ids ...int64) *Request {
	return &Request{
		CourseIDs:       ids,
		WeeklyHours:     10,
		UserPreferences: []int{3, 3, 3, 3},
		UserGoal:        "파이썬으로 데이터 분석을 배우고 싶습니다",
	}
}

// TestAnalyzeResultsCarryMatchingCourse pins the id-to-course resolution:
// every assembled result must carry the course record its id names.
func TestAnalyzeResultsCarryMatchingCourse(t *testing.T) {
	o, _, ids := setupOrchestrator(t, &stubGenerator{})
	ctx := context.Background()

	resp, err := o.Analyze(ctx, validRequest(ids["mw-102"], ids["mw-101"]))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}

	names := map[int64]string{
		ids["mw-101"]: "파이썬 기초",
		ids["mw-102"]: "파이썬 심화",
	}
	for _, res := range resp.Results {
		if res.Course == nil {
			t.Fatal("Result missing course record")
		}
		want, ok := names[res.Course.ID]
		if !ok {
			t.Fatalf("Unexpected course id %d in results", res.Course.ID)
		}
		if res.Course.Name != want {
			t.Errorf("Course %d carries name %s, expected %s", res.Course.ID, res.Course.Name, want)
		}
	}
}

func TestAnalyzeValidation(t *testing.T) {
	o, _, ids := setupOrchestrator(t, &stubGenerator{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"no course ids", func(r *Request) { r.CourseIDs = nil }, "course_ids"},
		{"too many course ids", func(r *Request) { r.CourseIDs = []int64{1, 2, 3, 4} }, "course_ids"},
		{"duplicate course ids", func(r *Request) { r.CourseIDs = []int64{1, 1} }, "course_ids"},
		{"negative course id", func(r *Request) { r.CourseIDs = []int64{-1} }, "course_ids"},
		{"weekly hours too low", func(r *Request) { r.WeeklyHours = 0 }, "weekly_hours"},
		{"weekly hours too high", func(r *Request) { r.WeeklyHours = 169 }, "weekly_hours"},
		{"wrong preference count", func(r *Request) { r.UserPreferences = []int{3, 3, 3} }, "user_preferences"},
		{"preference out of range", func(r *Request) { r.UserPreferences = []int{3, 3, 3, 6} }, "user_preferences"},
		{"goal too short", func(r *Request) { r.UserGoal = "짧은 목표" }, "user_goal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(ids["mw-101"])
			tt.mutate(req)
			_, err := o.Analyze(ctx, req)
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestAnalyzeNotFoundNamesMissingIDs(t *testing.T) {
	o, _, ids := setupOrchestrator(t, &stubGenerator{})

	_, err := o.Analyze(context.Background(), validRequest(ids["mw-101"], ids["mw-102"], 99999))
	var nf *apperrors.CoursesNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected not-found error, got %v", err)
	}
	if len(nf.MissingIDs) != 1 || nf.MissingIDs[0] != 99999 {
		t.Errorf("Expected missing ids [99999], got %v", nf.MissingIDs)
	}
}

func TestAnalyzeSkipsCourseWithoutRating(t *testing.T) {
	o, db, ids := setupOrchestrator(t, &stubGenerator{})
	ctx := context.Background()

	weeks := 4.0
	unrated := &storage.Course{ExternalID: "mw-104", Name: "미평가 강좌", Weeks: &weeks}
	if err := db.SaveCourse(ctx, unrated); err != nil {
		t.Fatalf("SaveCourse failed: %v", err)
	}
	all, _ := db.GetAllCourses(ctx)
	var unratedID int64
	for _, c := range all {
		if c.ExternalID == "mw-104" {
			unratedID = c.ID
		}
	}

	resp, err := o.Analyze(ctx, validRequest(ids["mw-101"], unratedID))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Course.ID != ids["mw-101"] {
		t.Errorf("Expected rated course to survive, got course %d", resp.Results[0].Course.ID)
	}
}

func TestAnalyzeSortsByMatchScoreDescending(t *testing.T) {
	o, _, ids := setupOrchestrator(t, &stubGenerator{})

	// Request in worst-first order; response must come back best-first.
	resp, err := o.Analyze(context.Background(), validRequest(ids["mw-103"], ids["mw-102"], ids["mw-101"]))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(resp.Results))
	}

	wantOrder := []int64{ids["mw-101"], ids["mw-102"], ids["mw-103"]}
	for i, want := range wantOrder {
		if resp.Results[i].Course.ID != want {
			t.Errorf("Position %d: expected course %d, got %d", i, want, resp.Results[i].Course.ID)
		}
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].MatchScore > resp.Results[i-1].MatchScore {
			t.Errorf("Results not sorted descending at position %d", i)
		}
	}
}

func TestAnalyzePartialNarrativeFailure(t *testing.T) {
	gen := &stubGenerator{}
	o, db, ids := setupOrchestrator(t, gen)
	ctx := context.Background()

	for _, key := range []string{"mw-101", "mw-102", "mw-103"} {
		seedReviews(t, db, ids[key], 6)
	}
	gen.failCourseID = ids["mw-102"]
	gen.failName = "파이썬 심화"

	resp, err := o.Analyze(ctx, validRequest(ids["mw-101"], ids["mw-102"], ids["mw-103"]))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("Expected 3 results despite narrative failure, got %d", len(resp.Results))
	}

	for _, r := range resp.Results {
		if r.Course.ID == ids["mw-102"] {
			if r.PersonalizedComment.RecommendationReason != msgCommentFallback {
				t.Errorf("Expected fallback comment, got %q", r.PersonalizedComment.RecommendationReason)
			}
			if len(r.PersonalizedComment.KeyPoints) != 0 {
				t.Errorf("Expected empty key points in fallback, got %v", r.PersonalizedComment.KeyPoints)
			}
			if r.ReviewSummary.ReviewSummary.Summary != msgSummaryFallback {
				t.Errorf("Expected fallback summary, got %q", r.ReviewSummary.ReviewSummary.Summary)
			}
			if r.ReviewSummary.WarningMessage != msgSummaryFailed {
				t.Errorf("Expected failure warning, got %q", r.ReviewSummary.WarningMessage)
			}
			// The local signals stay fully populated.
			if r.MatchScore <= 0 {
				t.Errorf("Expected positive match score, got %.2f", r.MatchScore)
			}
			if r.Sentiment.ReviewCount != 6 || r.Sentiment.Reliability != ReliabilityHigh {
				t.Errorf("Expected populated sentiment, got %+v", r.Sentiment)
			}
			if r.Timeline.Status == "" || r.Timeline.Ratio == nil {
				t.Errorf("Expected populated timeline, got %+v", r.Timeline)
			}
		} else {
			if r.PersonalizedComment.RecommendationReason == msgCommentFallback {
				t.Errorf("Course %d should not carry fallback comment", r.Course.ID)
			}
			if r.ReviewSummary.Reliability != ReliabilityHigh || r.ReviewSummary.ReviewCount != 6 {
				t.Errorf("Course %d: expected real digest, got %+v", r.Course.ID, r.ReviewSummary)
			}
		}
	}
}

func TestAnalyzeNilGeneratorUsesFallbacks(t *testing.T) {
	o, db, ids := setupOrchestrator(t, nil)
	ctx := context.Background()
	seedReviews(t, db, ids["mw-101"], 3)

	resp, err := o.Analyze(ctx, validRequest(ids["mw-101"]))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	r := resp.Results[0]
	if r.PersonalizedComment.RecommendationReason != msgCommentFallback {
		t.Errorf("Expected fallback comment, got %q", r.PersonalizedComment.RecommendationReason)
	}
	if r.ReviewSummary.ReviewSummary.Summary != msgSummaryFallback {
		t.Errorf("Expected fallback summary, got %q", r.ReviewSummary.ReviewSummary.Summary)
	}
}

func TestDigestNoReviews(t *testing.T) {
	o, db, ids := setupOrchestrator(t, &stubGenerator{})
	ctx := context.Background()

	course, err := db.GetCourseByID(ctx, ids["mw-101"])
	if err != nil {
		t.Fatalf("GetCourseByID failed: %v", err)
	}
	digest := o.summarizer.Digest(ctx, course)
	if digest.ReviewSummary.Summary != msgNoReviewsSummary {
		t.Errorf("Expected no-reviews summary, got %q", digest.ReviewSummary.Summary)
	}
	if digest.WarningMessage != msgNoReviewsWarning {
		t.Errorf("Expected no-reviews warning, got %q", digest.WarningMessage)
	}
	if digest.ReviewCount != 0 || digest.Reliability != ReliabilityLow {
		t.Errorf("Expected {0, low}, got %+v", digest)
	}
}

func TestDigestLowReviewCountWarning(t *testing.T) {
	o, db, ids := setupOrchestrator(t, &stubGenerator{})
	ctx := context.Background()
	seedReviews(t, db, ids["mw-101"], 3)

	course, err := db.GetCourseByID(ctx, ids["mw-101"])
	if err != nil {
		t.Fatalf("GetCourseByID failed: %v", err)
	}
	digest := o.summarizer.Digest(ctx, course)
	if digest.ReviewCount != 3 {
		t.Errorf("Expected review count 3, got %d", digest.ReviewCount)
	}
	if digest.Reliability != ReliabilityLow {
		t.Errorf("Expected low reliability, got %s", digest.Reliability)
	}
	if digest.WarningMessage != "리뷰가 3개로 적어 신뢰도가 낮을 수 있습니다" {
		t.Errorf("Unexpected warning message: %q", digest.WarningMessage)
	}
}
