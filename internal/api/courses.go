package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moduway/moduway-go/internal/cache"
	"github.com/moduway/moduway-go/internal/compare"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/storage"
)

type listResponse struct {
	Results  []storage.CourseListItem `json:"results"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// ListCourses serves the catalog list: latest offering per identity, review
// aggregates, structural filters, whitelisted ordering, pagination. Results
// are cached for a short TTL keyed by the normalized query parameters.
func (h *Handler) ListCourses(c *gin.Context) {
	page, pageSize := h.pagination(c)
	filter := courseFilterFromQuery(c)
	ordering := c.Query("ordering")

	key := cache.Key("courses",
		strings.Join(filter.Keywords, ","), filter.Category,
		strings.Join(filter.Subcategories, ","), filter.OrgName, filter.Instructor,
		ordering, strconv.Itoa(page), strconv.Itoa(pageSize))
	if cached, ok := h.listCache.Get(key); ok {
		h.metrics.CacheHitsTotal.WithLabelValues("course_list").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}
	h.metrics.CacheMissesTotal.WithLabelValues("course_list").Inc()

	items, total, err := h.db.ListCourses(c.Request.Context(), storage.ListOptions{
		Filter:   filter,
		Ordering: ordering,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := listResponse{Results: items, Total: total, Page: page, PageSize: pageSize}
	h.listCache.Set(key, resp)
	c.JSON(http.StatusOK, resp)
}

// GetCourse serves one course with its AI rating when present.
func (h *Handler) GetCourse(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}

	course, err := h.db.GetCourseByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	rating, err := h.db.GetAIRating(c.Request.Context(), id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course":    course,
		"ai_rating": rating,
	})
}

// ListCourseReviews serves a course's reviews, newest first.
func (h *Handler) ListCourseReviews(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}
	page, pageSize := h.pagination(c)

	if _, err := h.db.GetCourseByID(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	reviews, total, err := h.db.GetReviewsByCourse(c.Request.Context(), id, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   reviews,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCourseRecommendations serves similar courses by embedding proximity,
// identity-deduped and excluding the target identity. Backend failures
// degrade to an empty list.
func (h *Handler) GetCourseRecommendations(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}

	course, err := h.db.GetCourseByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	limit := intQuery(c, "limit", h.cfg.RecommendationCap)
	if limit > h.cfg.RecommendationCap {
		limit = h.cfg.RecommendationCap
	}

	similar, err := h.search.Recommend(c.Request.Context(), course, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if similar == nil {
		similar = []*storage.Course{}
	}

	c.JSON(http.StatusOK, gin.H{"results": similar})
}

// GetCourseSentiment serves the aggregated review sentiment of one course.
func (h *Handler) GetCourseSentiment(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}

	if _, err := h.db.GetCourseByID(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	labeled, err := h.db.GetLabeledReviews(c.Request.Context(), id, genai.MinReviewLength)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result := compare.AggregateSentiment(labeled)
	c.JSON(http.StatusOK, gin.H{
		"course_id":      id,
		"positive_ratio": result.PositiveRatio,
		"review_count":   result.ReviewCount,
		"reliability":    result.Reliability,
	})
}

// GetCourseReviewSummary serves the generated review digest for one course.
// Generation failures degrade to a fallback digest, never an error.
func (h *Handler) GetCourseReviewSummary(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}

	course, err := h.db.GetCourseByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.summarizer.Digest(c.Request.Context(), course))
}

// GetCourseAIRating serves the stored AI quality rating of one course.
func (h *Handler) GetCourseAIRating(c *gin.Context) {
	id, ok := h.courseIDParam(c)
	if !ok {
		return
	}

	rating, err := h.db.GetAIRating(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// courseFilterFromQuery extracts the shared structural filters.
func courseFilterFromQuery(c *gin.Context) storage.CourseFilter {
	filter := storage.CourseFilter{
		Category:   strings.TrimSpace(c.Query("category")),
		OrgName:    strings.TrimSpace(c.Query("org")),
		Instructor: strings.TrimSpace(c.Query("instructor")),
	}
	for _, kw := range strings.Fields(c.Query("keywords")) {
		filter.Keywords = append(filter.Keywords, kw)
	}
	for _, sub := range c.QueryArray("subcategory") {
		if s := strings.TrimSpace(sub); s != "" {
			filter.Subcategories = append(filter.Subcategories, s)
		}
	}
	return filter
}
