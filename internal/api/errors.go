package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/moduway/moduway-go/internal/errors"
	"github.com/moduway/moduway-go/internal/storage"
)

// handleError maps domain errors to HTTP responses. Validation problems are
// 400, missing resources 404, everything else 500.
func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		h.writeError(c, http.StatusBadRequest, gin.H{
			"detail": verr.Message,
			"field":  verr.Field,
		})
		return
	}

	var nferr *apperrors.CoursesNotFoundError
	if errors.As(err, &nferr) {
		h.writeError(c, http.StatusNotFound, gin.H{
			"detail":      "일부 강좌를 찾을 수 없습니다.",
			"missing_ids": nferr.MissingIDs,
		})
		return
	}

	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(c, http.StatusNotFound, gin.H{"detail": "강좌를 찾을 수 없습니다."})
		return
	}

	h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	h.writeError(c, http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

func (h *Handler) writeError(c *gin.Context, status int, body gin.H) {
	h.metrics.HTTPErrorsTotal.WithLabelValues(c.FullPath(), strconv.Itoa(status)).Inc()
	c.JSON(status, body)
}
