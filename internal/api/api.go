// Package api implements the HTTP handlers for the course catalog,
// search, and comparison endpoints.
package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moduway/moduway-go/internal/cache"
	"github.com/moduway/moduway-go/internal/compare"
	"github.com/moduway/moduway-go/internal/config"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/metrics"
	"github.com/moduway/moduway-go/internal/search"
	"github.com/moduway/moduway-go/internal/storage"
)

// responseCacheEntries bounds the short-TTL response cache.
const responseCacheEntries = 1024

// Handler serves the public HTTP API.
type Handler struct {
	cfg        *config.Config
	db         *storage.DB
	search     *search.Orchestrator
	compare    *compare.Orchestrator
	summarizer *compare.Summarizer
	listCache  *cache.TTLCache[listResponse]
	queryCache *cache.TTLCache[search.Response]
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New creates the API handler. The response caches use the configured
// search cache TTL.
func New(cfg *config.Config, db *storage.DB, searcher *search.Orchestrator, comparer *compare.Orchestrator, summarizer *compare.Summarizer, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		search:     searcher,
		compare:    comparer,
		summarizer: summarizer,
		listCache:  cache.New[listResponse](cfg.SearchCacheTTL, responseCacheEntries),
		queryCache: cache.New[search.Response](cfg.SearchCacheTTL, responseCacheEntries),
		metrics:    m,
		log:        log.WithModule("api"),
	}
}

// RegisterRoutes mounts the versioned API under router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")

	courses := v1.Group("/courses")
	courses.GET("", h.ListCourses)
	courses.GET("/:id", h.GetCourse)
	courses.GET("/:id/reviews", h.ListCourseReviews)
	courses.GET("/:id/recommendations", h.GetCourseRecommendations)
	courses.GET("/:id/sentiment", h.GetCourseSentiment)
	courses.GET("/:id/review-summary", h.GetCourseReviewSummary)
	courses.GET("/:id/ai-rating", h.GetCourseAIRating)

	searchGroup := v1.Group("/search")
	searchGroup.GET("/keyword", h.SearchKeyword)
	searchGroup.GET("/semantic", h.SearchSemantic)

	v1.POST("/comparisons/analyze", h.AnalyzeComparison)
}

// courseIDParam parses the :id path parameter. A non-positive or malformed
// id reports ok=false after writing a 400 response.
func (h *Handler) courseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, 400, gin.H{"detail": "invalid course id"})
		return 0, false
	}
	return id, true
}

// intQuery parses an integer query parameter with a default.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// pagination extracts page/page_size, clamping page_size to the configured
// maximum.
func (h *Handler) pagination(c *gin.Context) (page, pageSize int) {
	page = intQuery(c, "page", 1)
	pageSize = intQuery(c, "page_size", h.cfg.DefaultPageSize)
	if pageSize > h.cfg.MaxPageSize {
		pageSize = h.cfg.MaxPageSize
	}
	return page, pageSize
}
