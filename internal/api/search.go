package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moduway/moduway-go/internal/cache"
	"github.com/moduway/moduway-go/internal/search"
)

// SearchKeyword serves BM25 keyword search over course names and summaries.
func (h *Handler) SearchKeyword(c *gin.Context) {
	h.runSearch(c, search.ModeKeyword)
}

// SearchSemantic serves embedding-similarity search. It degrades to an
// empty result set when the embedding backend is unavailable.
func (h *Handler) SearchSemantic(c *gin.Context) {
	h.runSearch(c, search.ModeSemantic)
}

func (h *Handler) runSearch(c *gin.Context, mode search.Mode) {
	query := strings.TrimSpace(c.Query("q"))
	page, pageSize := h.pagination(c)
	filter := courseFilterFromQuery(c)

	req := search.Request{
		Query:    query,
		Filter:   filter,
		Page:     page,
		PageSize: pageSize,
	}

	key := cache.Key("search", string(mode), query,
		strings.Join(filter.Keywords, ","), filter.Category,
		strings.Join(filter.Subcategories, ","), filter.OrgName, filter.Instructor,
		strconv.Itoa(page), strconv.Itoa(pageSize))
	if cached, ok := h.queryCache.Get(key); ok {
		h.metrics.CacheHitsTotal.WithLabelValues("search").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}
	h.metrics.CacheMissesTotal.WithLabelValues("search").Inc()

	resp, err := h.search.Search(c.Request.Context(), mode, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Degraded responses are transient; caching them would pin the outage.
	if !resp.Degraded {
		h.queryCache.Set(key, *resp)
	}
	c.JSON(http.StatusOK, resp)
}
