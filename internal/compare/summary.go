package compare

import (
	"context"
	"fmt"

	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/storage"
)

// User-facing digest messages.
const (
	msgNoReviewsSummary = "리뷰가 없어서 요약을 제공할 수 없습니다"
	msgNoReviewsWarning = "아직 수강생 리뷰가 등록되지 않았습니다"
	msgSummaryFallback  = "현재 리뷰 요약을 생성할 수 없습니다. 잠시 후 다시 시도해주세요."
	msgSummaryFailed    = "리뷰 요약 생성에 실패했습니다."
)

// Summarizer produces review digests for courses. It reads qualifying review
// texts, feeds a capped sample to the generator, and wraps the narrative in
// count and reliability metadata. Generation failures never propagate: the
// digest falls back to a fixed apologetic payload instead.
type Summarizer struct {
	db        *storage.DB
	generator genai.Generator
	log       *logger.Logger
}

// NewSummarizer creates a review summarizer. generator may be nil, in which
// case every digest with reviews uses the fallback payload.
func NewSummarizer(db *storage.DB, generator genai.Generator, log *logger.Logger) *Summarizer {
	return &Summarizer{
		db:        db,
		generator: generator,
		log:       log.WithModule("summary"),
	}
}

// Digest builds the review summary payload for one course. It never returns
// an error; any failure along the way degrades to a fallback digest.
func (s *Summarizer) Digest(ctx context.Context, course *storage.Course) *ReviewDigest {
	texts, total, err := s.db.GetReviewTexts(ctx, course.ID, genai.MinReviewLength, genai.MaxReviewsToSummarize)
	if err != nil {
		s.log.WithError(err).WithField("course_id", course.ID).Warn("review lookup failed")
		return s.fallbackDigest(course)
	}

	if total == 0 {
		return &ReviewDigest{
			CourseID:   course.ID,
			CourseName: course.Name,
			ReviewSummary: genai.ReviewSummary{
				Summary: msgNoReviewsSummary,
				Pros:    []string{},
				Cons:    []string{},
			},
			ReviewCount:    0,
			Reliability:    ReliabilityLow,
			WarningMessage: msgNoReviewsWarning,
		}
	}

	if s.generator == nil {
		return s.fallbackDigest(course)
	}

	summary, err := s.generator.GenerateReviewSummary(ctx, course.Name, texts, total)
	if err != nil {
		s.log.WithError(err).WithField("course_id", course.ID).Warn("review summary generation failed")
		return s.fallbackDigest(course)
	}

	digest := &ReviewDigest{
		CourseID:      course.ID,
		CourseName:    course.Name,
		ReviewSummary: *summary,
		ReviewCount:   total,
		Reliability:   ReliabilityHigh,
	}
	if total < genai.HighReliabilityMinReviews {
		digest.Reliability = ReliabilityLow
		digest.WarningMessage = fmt.Sprintf("리뷰가 %d개로 적어 신뢰도가 낮을 수 있습니다", total)
	}
	return digest
}

func (s *Summarizer) fallbackDigest(course *storage.Course) *ReviewDigest {
	return &ReviewDigest{
		CourseID:   course.ID,
		CourseName: course.Name,
		ReviewSummary: genai.ReviewSummary{
			Summary: msgSummaryFallback,
			Pros:    []string{},
			Cons:    []string{},
		},
		ReviewCount:    0,
		Reliability:    ReliabilityLow,
		WarningMessage: msgSummaryFailed,
	}
}
