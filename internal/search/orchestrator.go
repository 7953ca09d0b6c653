package search

import (
	"context"
	"time"

	apperrors "github.com/moduway/moduway-go/internal/errors"
	"github.com/moduway/moduway-go/internal/identity"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/storage"
)

// Mode selects the retrieval backend.
type Mode string

const (
	// ModeKeyword ranks by BM25 over names and summaries.
	ModeKeyword Mode = "keyword"
	// ModeSemantic ranks by embedding similarity.
	ModeSemantic Mode = "semantic"
)

// Request is a search query plus structural filters and pagination.
type Request struct {
	Query    string
	Filter   storage.CourseFilter
	Page     int // 1-based
	PageSize int
}

// Result is one ranked course with its backend score.
type Result struct {
	Course *storage.Course `json:"course"`
	Score  float64         `json:"score"`
}

// Response is a search result page. Degraded is true when a backend failure
// produced an empty result set instead of an error.
type Response struct {
	Results  []Result `json:"results"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Degraded bool     `json:"degraded,omitempty"`
}

// Tuning overrides the retrieval caps. Zero fields fall back to the
// package defaults.
type Tuning struct {
	KeywordFetchCap int
	SemanticK       int
}

func (t Tuning) withDefaults() Tuning {
	if t.KeywordFetchCap <= 0 {
		t.KeywordFetchCap = KeywordFetchCap
	}
	if t.SemanticK <= 0 {
		t.SemanticK = SemanticK
	}
	return t
}

// Orchestrator runs either retrieval mode through the shared post-pipeline:
// ranked candidate ids → id-fetch with structural filters →
// relevance-preserving identity dedup → pagination.
type Orchestrator struct {
	db      *storage.DB
	keyword *KeywordIndex
	vector  *VectorIndex // nil when semantic search is disabled
	tuning  Tuning
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewOrchestrator wires the search backends. vector may be nil.
func NewOrchestrator(db *storage.DB, keyword *KeywordIndex, vector *VectorIndex, tuning Tuning, m *metrics.Metrics, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		db:      db,
		keyword: keyword,
		vector:  vector,
		tuning:  tuning.withDefaults(),
		metrics: m,
		logger:  log.WithModule("search"),
	}
}

// Search executes a query in the given mode. Backend failures never surface
// as errors: they degrade to an empty, flagged response so that the HTTP
// layer returns 200 with zero results.
func (o *Orchestrator) Search(ctx context.Context, mode Mode, req Request) (*Response, error) {
	start := time.Now()

	candidates, err := o.rankedCandidates(ctx, mode, req.Query)
	if err != nil {
		o.logger.WithError(err).WithField("mode", string(mode)).Warn("search backend failed, degrading to empty results")
		o.metrics.SearchDegradedTotal.WithLabelValues(string(mode), "backend_error").Inc()
		o.metrics.SearchRequestsTotal.WithLabelValues(string(mode), "degraded").Inc()
		return &Response{
			Results:  []Result{},
			Page:     normalizePage(req.Page),
			PageSize: req.PageSize,
			Degraded: true,
		}, nil
	}
	o.metrics.SearchCandidates.WithLabelValues("ranked").Observe(float64(len(candidates)))

	resp, err := o.postPipeline(ctx, mode, candidates, req)
	if err != nil {
		return nil, err
	}

	o.metrics.SearchRequestsTotal.WithLabelValues(string(mode), "success").Inc()
	o.metrics.SearchDurationSeconds.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	return resp, nil
}

// candidate pairs an id with its backend score, preserving rank order.
type candidate struct {
	courseID int64
	score    float64
}

func (o *Orchestrator) rankedCandidates(ctx context.Context, mode Mode, query string) ([]candidate, error) {
	switch mode {
	case ModeSemantic:
		if o.vector == nil {
			return nil, apperrors.ErrEmbeddingUnavailable
		}
		results, err := o.vector.Search(ctx, query, o.tuning.SemanticK)
		if err != nil {
			return nil, err
		}
		candidates := make([]candidate, len(results))
		for i, r := range results {
			candidates[i] = candidate{courseID: r.CourseID, score: float64(r.Similarity)}
		}
		return candidates, nil

	default:
		results, err := o.keyword.Search(query, o.tuning.KeywordFetchCap)
		if err != nil {
			return nil, err
		}
		candidates := make([]candidate, len(results))
		for i, r := range results {
			candidates[i] = candidate{courseID: r.CourseID, score: r.Score}
		}
		return candidates, nil
	}
}

// postPipeline is shared by both modes: fetch candidate rows applying
// structural filters, restore rank order, collapse repeated offerings
// keeping the best-ranked one, then paginate.
func (o *Orchestrator) postPipeline(ctx context.Context, mode Mode, candidates []candidate, req Request) (*Response, error) {
	page := normalizePage(req.Page)

	if len(candidates) == 0 {
		return &Response{Results: []Result{}, Page: page, PageSize: req.PageSize}, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.courseID
	}

	byID, err := o.db.FilterCourseIDs(ctx, ids, req.Filter)
	if err != nil {
		return nil, err
	}
	o.metrics.SearchCandidates.WithLabelValues("filtered").Observe(float64(len(byID)))

	// Restore rank order; ids the filter dropped disappear here.
	ranked := make([]*storage.Course, 0, len(byID))
	scores := make(map[int64]float64, len(byID))
	for _, c := range candidates {
		course, ok := byID[c.courseID]
		if !ok {
			continue
		}
		ranked = append(ranked, course)
		scores[course.ID] = c.score
	}

	deduped := identity.CollapseByRelevance(ranked)
	if collapsed := len(ranked) - len(deduped); collapsed > 0 {
		o.metrics.IdentityCollapsedTotal.WithLabelValues(string(mode)).Add(float64(collapsed))
	}

	total := len(deduped)
	pageItems := paginate(deduped, page, req.PageSize)

	results := make([]Result, len(pageItems))
	for i, course := range pageItems {
		results[i] = Result{Course: course, Score: scores[course.ID]}
	}
	return &Response{
		Results:  results,
		Total:    total,
		Page:     page,
		PageSize: req.PageSize,
	}, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func paginate(courses []*storage.Course, page, pageSize int) []*storage.Course {
	if pageSize <= 0 {
		return courses
	}
	start := (page - 1) * pageSize
	if start >= len(courses) {
		return nil
	}
	end := start + pageSize
	if end > len(courses) {
		end = len(courses)
	}
	return courses[start:end]
}
