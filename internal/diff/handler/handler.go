package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reviewhub/reviewhub/internal/diff/model"
	"github.com/reviewhub/reviewhub/internal/diff/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
)

// Handler handles HTTP requests for draft diff endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new diff handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func requestID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("review_request_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "review request not found")
		return 0, false
	}
	return id, true
}

// Upload handles POST /review-requests/:review_request_id/draft/diffs/ requests.
func (h *Handler) Upload(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req model.UploadDiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		formErrorResponse(c, map[string][]string{
			"path": {"a diff file is required"},
		})
		return
	}

	resp, err := h.service.Upload(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), &req)
	if err != nil {
		var tooBig *model.DiffTooBigError
		var verr *model.ValidationError
		switch {
		case errors.As(err, &tooBig):
			c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "DIFF_TOO_BIG",
					"message": tooBig.Error(),
				},
				"max_size": tooBig.MaxSize,
			})
		case errors.As(err, &verr):
			formErrorResponse(c, verr.Fields)
		case errors.Is(err, model.ErrNoRepository):
			formErrorResponse(c, map[string][]string{
				"repository": {"the review request has no repository to diff against"},
			})
		default:
			h.respondError(c, err, "error uploading diff")
		}
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"diff": resp,
	})
}

// List handles GET /review-requests/:review_request_id/draft/diffs/ requests.
func (h *Handler) List(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListDraft(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c))
	if err != nil {
		h.respondError(c, err, "error listing draft diffs")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"diffs":         resp,
		"total_results": len(resp),
	})
}

// Get handles GET /review-requests/:review_request_id/draft/diffs/:revision/ requests.
func (h *Handler) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	revision, err := strconv.Atoi(c.Param("revision"))
	if err != nil {
		notFoundResponse(c, "diff revision not found")
		return
	}

	resp, err := h.service.GetDraft(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), revision)
	if err != nil {
		if errors.Is(err, model.ErrDiffSetNotFound) {
			notFoundResponse(c, "diff revision not found")
			return
		}
		h.respondError(c, err, "error fetching draft diff")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"diff": resp,
	})
}

func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, rrModel.ErrReviewRequestNotFound):
		notFoundResponse(c, "review request not found")
	case errors.Is(err, rrModel.ErrPermissionDenied), errors.Is(err, model.ErrPermissionDenied):
		errorResponse(c, "PERMISSION_DENIED", "you do not have permission for this operation", http.StatusForbidden)
	default:
		h.logger.Errorw(logMsg, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
