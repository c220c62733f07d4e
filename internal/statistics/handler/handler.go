package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reviewhub/reviewhub/internal/statistics/service"
)

// Handler handles HTTP requests for statistics endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new statistics handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetReviewers handles GET /statistics/reviewers/ requests.
func (h *Handler) GetReviewers(c *gin.Context) {
	resp, err := h.service.GetReviewersStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error fetching reviewer statistics", "error", err)
		internalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetReviewRequests handles GET /statistics/review-requests/ requests.
func (h *Handler) GetReviewRequests(c *gin.Context) {
	resp, err := h.service.GetReviewRequestStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error fetching review request statistics", "error", err)
		internalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}
