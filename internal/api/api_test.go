package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moduway/moduway-go/internal/compare"
	"github.com/moduway/moduway-go/internal/config"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/search"
	"github.com/moduway/moduway-go/internal/storage"
)

type fixedGenerator struct{}

func (fixedGenerator) GenerateRecommendation(_ context.Context, course genai.CourseProfile, _ string) (*genai.Recommendation, error) {
	return &genai.Recommendation{
		CourseID:             course.ID,
		CourseName:           course.Name,
		RecommendationReason: "목표 달성에 적합한 강좌입니다",
		KeyPoints:            []string{"실습 위주", "단계별 구성"},
	}, nil
}

func (fixedGenerator) GenerateReviewSummary(_ context.Context, _ string, _ []string, _ int) (*genai.ReviewSummary, error) {
	return &genai.ReviewSummary{
		Summary: "수강생 만족도가 높은 강좌입니다",
		Pros:    []string{"명확한 설명"},
		Cons:    []string{},
	}, nil
}

func (fixedGenerator) Provider() genai.Provider { return genai.ProviderOpenAI }
func (fixedGenerator) Close() error             { return nil }

func testConfig() *config.Config {
	return &config.Config{
		KeywordFetchCap:   config.DefaultKeywordFetchCap,
		SemanticK:         config.DefaultSemanticK,
		SemanticPool:      config.DefaultSemanticPool,
		SearchCacheTTL:    5 * time.Minute,
		DefaultPageSize:   10,
		MaxPageSize:       100,
		RecommendationCap: config.DefaultRecommendationCap,
	}
}

// setupAPI builds a router backed by a real SQLite database and BM25 index,
// with semantic search disabled and a canned generator.
func setupAPI(t *testing.T) (*gin.Engine, *storage.DB, map[string]int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ids := seedAPICatalog(t, db)

	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.New(prometheus.NewRegistry())

	keyword := search.NewKeywordIndex(log)
	all, err := db.GetAllCourses(context.Background())
	if err != nil {
		t.Fatalf("GetAllCourses failed: %v", err)
	}
	if err := keyword.Build(all); err != nil {
		t.Fatalf("Keyword index build failed: %v", err)
	}

	searcher := search.NewOrchestrator(db, keyword, nil, search.Tuning{}, m, log)
	comparer := compare.NewOrchestrator(db, fixedGenerator{}, m, log, 0)
	summarizer := compare.NewSummarizer(db, fixedGenerator{}, log)

	handler := New(testConfig(), db, searcher, comparer, summarizer, m, log)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router, db, ids
}

func seedAPICatalog(t *testing.T, db *storage.DB) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	weeks := 6.0
	playtime := 900.0
	courses := []*storage.Course{
		{ExternalID: "mw-201", Name: "데이터 분석 입문", Instructor: "김철수", OrgName: "코드랩", Category: "데이터", Subcategory: "분석", Summary: "판다스로 배우는 데이터 분석", Weeks: &weeks, PlaytimeMinutes: &playtime},
		{ExternalID: "mw-202", Name: "웹 개발 기초", Instructor: "이영희", OrgName: "웹스쿨", Category: "프로그래밍", Subcategory: "웹", Summary: "HTML과 CSS부터 시작하는 웹 개발", Weeks: &weeks, PlaytimeMinutes: &playtime},
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
	ids := make(map[string]int64)
	for _, c := range all {
		ids[c.ExternalID] = c.ID
	}

	if err := db.SaveAIRating(ctx, &storage.AIRating{
		CourseID: ids["mw-201"], TheoryRating: 3, PracticalRating: 4, DifficultyRating: 2, DurationRating: 3, AverageRating: 3,
	}); err != nil {
		t.Fatalf("SaveAIRating failed: %v", err)
	}

	positive := "positive"
	for i := 0; i < 6; i++ {
		if err := db.SaveReview(ctx, &storage.Review{
			CourseID:       ids["mw-201"],
			Content:        "강의 내용이 알차고 실습 예제가 많아서 좋았습니다",
			Rating:         5,
			SentimentLabel: &positive,
		}); err != nil {
			t.Fatalf("SaveReview failed: %v", err)
		}
	}
	return ids
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
}

func TestListCourses(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []storage.CourseListItem `json:"results"`
		Total   int                      `json:"total"`
	}
	decodeJSON(t, w, &resp)
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Errorf("Expected 2 courses, got total=%d len=%d", resp.Total, len(resp.Results))
	}
}

func TestListCoursesFilterByCategory(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses?category=%EB%8D%B0%EC%9D%B4%ED%84%B0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Results []storage.CourseListItem `json:"results"`
		Total   int                      `json:"total"`
	}
	decodeJSON(t, w, &resp)
	if resp.Total != 1 {
		t.Errorf("Expected 1 course in category, got %d", resp.Total)
	}
}

func TestGetCourseDetail(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/"+itoa(ids["mw-201"]), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Course   *storage.Course   `json:"course"`
		AIRating *storage.AIRating `json:"ai_rating"`
	}
	decodeJSON(t, w, &resp)
	if resp.Course == nil || resp.Course.Name != "데이터 분석 입문" {
		t.Errorf("Unexpected course payload: %+v", resp.Course)
	}
	if resp.AIRating == nil || resp.AIRating.PracticalRating != 4 {
		t.Errorf("Expected AI rating in detail, got %+v", resp.AIRating)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/99999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetCourseInvalidID(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestListCourseReviews(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/"+itoa(ids["mw-201"])+"/reviews", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Results []storage.Review `json:"results"`
		Total   int              `json:"total"`
	}
	decodeJSON(t, w, &resp)
	if resp.Total != 6 {
		t.Errorf("Expected 6 reviews, got %d", resp.Total)
	}
}

func TestGetCourseSentiment(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/"+itoa(ids["mw-201"])+"/sentiment", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		PositiveRatio float64 `json:"positive_ratio"`
		ReviewCount   int     `json:"review_count"`
		Reliability   string  `json:"reliability"`
	}
	decodeJSON(t, w, &resp)
	if resp.ReviewCount != 6 || resp.PositiveRatio != 1.0 || resp.Reliability != "high" {
		t.Errorf("Unexpected sentiment: %+v", resp)
	}
}

func TestGetCourseReviewSummary(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/"+itoa(ids["mw-201"])+"/review-summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var digest compare.ReviewDigest
	decodeJSON(t, w, &digest)
	if digest.ReviewCount != 6 || digest.Reliability != "high" {
		t.Errorf("Unexpected digest: %+v", digest)
	}
	if digest.ReviewSummary.Summary == "" {
		t.Error("Expected non-empty summary")
	}
}

func TestGetCourseAIRatingNotFound(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/courses/"+itoa(ids["mw-202"])+"/ai-rating", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unrated course, got %d", w.Code)
	}
}

func TestSearchKeyword(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/search/keyword?q=%EB%8D%B0%EC%9D%B4%ED%84%B0+%EB%B6%84%EC%84%9D", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp search.Response
	decodeJSON(t, w, &resp)
	if resp.Total == 0 {
		t.Fatal("Expected keyword hits for matching query")
	}
	if resp.Results[0].Course.Name != "데이터 분석 입문" {
		t.Errorf("Expected best hit to be the matching course, got %q", resp.Results[0].Course.Name)
	}
}

func TestSearchSemanticDegradesWithoutVectorIndex(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/search/semantic?q=%EB%8D%B0%EC%9D%B4%ED%84%B0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 even when semantic search is unavailable, got %d", w.Code)
	}

	var resp search.Response
	decodeJSON(t, w, &resp)
	if !resp.Degraded || len(resp.Results) != 0 {
		t.Errorf("Expected degraded empty response, got %+v", resp)
	}
}

func TestAnalyzeComparison(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/comparisons/analyze", map[string]any{
		"course_ids":       []int64{ids["mw-201"]},
		"weekly_hours":     10,
		"user_preferences": []int{3, 4, 2, 3},
		"user_goal":        "데이터 분석 역량을 키워 이직을 준비하고 싶습니다",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp compare.Response
	decodeJSON(t, w, &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resp.Results))
	}
	r := resp.Results[0]
	if r.MatchScore != 5.0 {
		t.Errorf("Expected perfect match score, got %.2f", r.MatchScore)
	}
	if r.PersonalizedComment == nil || r.ReviewSummary == nil {
		t.Error("Expected both narrative payloads")
	}
	if r.Timeline.Status == "" {
		t.Error("Expected timeline verdict")
	}
}

func TestAnalyzeComparisonMissingCourse(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/comparisons/analyze", map[string]any{
		"course_ids":       []int64{ids["mw-201"], 99999},
		"weekly_hours":     10,
		"user_preferences": []int{3, 4, 2, 3},
		"user_goal":        "데이터 분석 역량을 키워 이직을 준비하고 싶습니다",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}

	var resp struct {
		MissingIDs []int64 `json:"missing_ids"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.MissingIDs) != 1 || resp.MissingIDs[0] != 99999 {
		t.Errorf("Expected missing_ids [99999], got %v", resp.MissingIDs)
	}
}

func TestAnalyzeComparisonValidation(t *testing.T) {
	router, _, ids := setupAPI(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/comparisons/analyze", map[string]any{
		"course_ids":       []int64{ids["mw-201"]},
		"weekly_hours":     0,
		"user_preferences": []int{3, 4, 2, 3},
		"user_goal":        "데이터 분석 역량을 키워 이직을 준비하고 싶습니다",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp struct {
		Field string `json:"field"`
	}
	decodeJSON(t, w, &resp)
	if resp.Field != "weekly_hours" {
		t.Errorf("Expected field weekly_hours, got %q", resp.Field)
	}
}

func TestAnalyzeComparisonMalformedBody(t *testing.T) {
	router, _, _ := setupAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons/analyze", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
