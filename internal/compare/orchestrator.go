package compare

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/moduway/moduway-go/internal/errors"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/storage"
)

// DefaultConcurrency bounds how many courses are evaluated at once. Each
// course issues up to two generation calls, so this also caps in-flight
// LLM requests per comparison.
const DefaultConcurrency = 3

const msgCommentFallback = "현재 개인화 추천을 생성할 수 없습니다. 잠시 후 다시 시도해주세요."

// Orchestrator runs comparison requests end to end: validate, resolve
// courses and ratings, evaluate each course concurrently, and sort the
// results by match score.
type Orchestrator struct {
	db          *storage.DB
	generator   genai.Generator
	summarizer  *Summarizer
	metrics     *metrics.Metrics
	log         *logger.Logger
	concurrency int
	now         func() time.Time
}

// NewOrchestrator creates a comparison orchestrator. generator may be nil,
// in which case both narrative payloads always use their fallbacks.
// concurrency <= 0 falls back to DefaultConcurrency.
func NewOrchestrator(db *storage.DB, generator genai.Generator, m *metrics.Metrics, log *logger.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		db:          db,
		generator:   generator,
		summarizer:  NewSummarizer(db, generator, log),
		metrics:     m,
		log:         log.WithModule("compare"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Analyze runs one comparison request. It fails only on invalid input or
// when a requested course id does not exist; every per-course sub-failure
// degrades to fallback or zero values instead. Courses without an AI rating
// are omitted from the results.
func (o *Orchestrator) Analyze(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		o.metrics.ComparisonRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	courses, err := o.db.GetCoursesByIDs(ctx, req.CourseIDs)
	if err != nil {
		o.metrics.ComparisonRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	byID := make(map[int64]*storage.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}
	var missing []int64
	for _, id := range req.CourseIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		o.metrics.ComparisonRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, apperrors.NewCoursesNotFoundError(missing)
	}

	ratings, err := o.db.GetAIRatingsByCourseIDs(ctx, req.CourseIDs)
	if err != nil {
		o.metrics.ComparisonRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// Courses lacking an AI rating cannot be scored and are skipped; the
	// request still succeeds with the remaining courses.
	type job struct {
		course *storage.Course
		rating *storage.AIRating
	}
	var jobs []job
	for _, id := range req.CourseIDs {
		course := byID[id]
		rating, ok := ratings[id]
		if !ok {
			o.metrics.ComparisonCoursesSkipped.Inc()
			o.log.WithField("course_id", id).Info("skipping course without ai rating")
			continue
		}
		jobs = append(jobs, job{course: course, rating: rating})
	}

	prefs := req.preferenceVector()
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = o.evaluateCourse(gctx, j.course, j.rating, prefs, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.metrics.ComparisonRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// Stable sort keeps input order among equal scores.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].MatchScore > results[b].MatchScore
	})

	o.metrics.ComparisonRequestsTotal.WithLabelValues("success").Inc()
	o.metrics.ComparisonDurationSeconds.Observe(time.Since(start).Seconds())
	return &Response{Results: results}, nil
}

// evaluateCourse assembles one course's result. The three local scorers run
// inline; the two narrative calls run concurrently and substitute fallback
// payloads on failure.
func (o *Orchestrator) evaluateCourse(ctx context.Context, course *storage.Course, rating *storage.AIRating, prefs [PreferenceDimensions]int, req *Request) *Result {
	result := &Result{
		Course:     course,
		AIRating:   rating,
		MatchScore: MatchScore(rating, prefs),
		Timeline:   SimulateTimeline(course, req.WeeklyHours, o.now()),
	}

	labeled, err := o.db.GetLabeledReviews(ctx, course.ID, genai.MinReviewLength)
	if err != nil {
		o.log.WithError(err).WithField("course_id", course.ID).Warn("sentiment lookup failed")
		labeled = nil
	}
	result.Sentiment = AggregateSentiment(labeled)

	var wg errgroup.Group
	wg.Go(func() error {
		result.PersonalizedComment = o.personalizedComment(ctx, course, rating, req.UserGoal)
		return nil
	})
	wg.Go(func() error {
		result.ReviewSummary = o.summarizer.Digest(ctx, course)
		return nil
	})
	_ = wg.Wait() // the closures never return errors

	return result
}

func (o *Orchestrator) personalizedComment(ctx context.Context, course *storage.Course, rating *storage.AIRating, userGoal string) *genai.Recommendation {
	if o.generator != nil {
		rec, err := o.generator.GenerateRecommendation(ctx, courseProfile(course, rating), userGoal)
		if err == nil {
			return rec
		}
		o.log.WithError(err).WithField("course_id", course.ID).Warn("personalized comment generation failed")
	}
	return &genai.Recommendation{
		CourseID:             course.ID,
		CourseName:           course.Name,
		RecommendationReason: msgCommentFallback,
		KeyPoints:            []string{},
	}
}

func courseProfile(course *storage.Course, rating *storage.AIRating) genai.CourseProfile {
	p := genai.CourseProfile{
		ID:               course.ID,
		Name:             course.Name,
		Instructor:       course.Instructor,
		OrgName:          course.OrgName,
		Category:         course.Category,
		Subcategory:      course.Subcategory,
		Summary:          rating.Summary,
		TheoryRating:     rating.TheoryRating,
		PracticalRating:  rating.PracticalRating,
		DifficultyRating: rating.DifficultyRating,
		DurationRating:   rating.DurationRating,
	}
	if course.Weeks != nil {
		p.Weeks = *course.Weeks
	}
	return p
}
