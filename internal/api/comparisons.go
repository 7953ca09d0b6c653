package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moduway/moduway-go/internal/compare"
)

// AnalyzeComparison runs a comparison across 1-3 courses and returns the
// results sorted by match score. Courses without an AI rating are omitted;
// missing course ids produce a 404 naming them.
func (h *Handler) AnalyzeComparison(c *gin.Context) {
	var req compare.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, http.StatusBadRequest, gin.H{"detail": "malformed request body"})
		return
	}

	resp, err := h.compare.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
