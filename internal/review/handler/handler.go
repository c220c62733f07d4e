package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	diffModel "github.com/reviewhub/reviewhub/internal/diff/model"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/review/model"
	"github.com/reviewhub/reviewhub/internal/review/repository"
	"github.com/reviewhub/reviewhub/internal/review/service"
	rrModel "github.com/reviewhub/reviewhub/internal/reviewrequest/model"
)

// commentFields are the payload keys bound to the comment DTOs. Anything
// else in the payload becomes extra data on the comment.
var commentFields = map[string]bool{
	"filediff_id":      true,
	"interfilediff_id": true,
	"text":             true,
	"first_line":       true,
	"num_lines":        true,
	"issue_opened":     true,
	"issue_status":     true,
}

// Handler handles HTTP requests for review and comment endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new review handler instance.
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

func reviewID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("review_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "review not found")
		return 0, false
	}
	return id, true
}

// bindWithExtra decodes the body into dst and returns the payload keys
// that dst does not cover.
func bindWithExtra(c *gin.Context, dst interface{}) (model.JSONMap, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return model.JSONMap{}, nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	extra := model.JSONMap{}
	for k, v := range raw {
		if !commentFields[k] {
			extra[k] = v
		}
	}
	return extra, nil
}

// CreateReview handles POST /review-requests/:review_request_id/reviews/ requests.
func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateReview(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), &req)
	if err != nil {
		h.respondError(c, err, "error creating review")
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"review": resp,
	})
}

// ListReviews handles GET /review-requests/:review_request_id/reviews/ requests.
func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListReviews(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c))
	if err != nil {
		h.respondError(c, err, "error listing reviews")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"reviews":       resp,
		"total_results": len(resp),
	})
}

// GetReview handles GET /review-requests/:review_request_id/reviews/:review_id/ requests.
func (h *Handler) GetReview(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetReview(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID)
	if err != nil {
		h.respondError(c, err, "error fetching review")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review": resp,
	})
}

// UpdateReview handles PUT /review-requests/:review_request_id/reviews/:review_id/ requests.
func (h *Handler) UpdateReview(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}
	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.UpdateReview(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, &req)
	if err != nil {
		h.respondError(c, err, "error updating review")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review": resp,
	})
}

// DeleteReview handles DELETE /review-requests/:review_request_id/reviews/:review_id/ requests.
func (h *Handler) DeleteReview(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID); err != nil {
		h.respondError(c, err, "error deleting review")
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateComment handles POST .../reviews/:review_id/diff-comments/ requests.
func (h *Handler) CreateComment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}
	var req model.CreateCommentRequest
	extra, err := bindWithExtra(c, &req)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateComment(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, &req, extra)
	if err != nil {
		h.respondError(c, err, "error creating comment")
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"diff_comment": resp,
	})
}

// ListComments handles GET .../reviews/:review_id/diff-comments/ requests.
func (h *Handler) ListComments(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}

	var f repository.CommentFilters
	if v := c.Query("line"); v != "" {
		line, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			formErrorResponse(c, map[string][]string{"line": {"must be an integer"}})
			return
		}
		f.Line = &line
	}
	if v := c.Query("interfilediff-id"); v != "" {
		fdID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			formErrorResponse(c, map[string][]string{"interfilediff-id": {"must be an integer"}})
			return
		}
		f.InterFileDiffID = &fdID
	}

	resp, err := h.service.ListComments(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, f)
	if err != nil {
		h.respondError(c, err, "error listing comments")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"diff_comments": resp,
		"total_results": len(resp),
	})
}

// GetComment handles GET .../diff-comments/:comment_id/ requests.
func (h *Handler) GetComment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "comment not found")
		return
	}

	resp, err := h.service.GetComment(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, commentID)
	if err != nil {
		h.respondError(c, err, "error fetching comment")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"diff_comment": resp,
	})
}

// UpdateComment handles PUT .../diff-comments/:comment_id/ requests.
func (h *Handler) UpdateComment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "comment not found")
		return
	}
	var req model.UpdateCommentRequest
	extra, err := bindWithExtra(c, &req)
	if err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.UpdateComment(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, commentID, &req, extra)
	if err != nil {
		h.respondError(c, err, "error updating comment")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"diff_comment": resp,
	})
}

// DeleteComment handles DELETE .../diff-comments/:comment_id/ requests.
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	rvID, ok := reviewID(c)
	if !ok {
		return
	}
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "comment not found")
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), rvID, commentID); err != nil {
		h.respondError(c, err, "error deleting comment")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	var verr *diffModel.ValidationError
	switch {
	case errors.Is(err, rrModel.ErrReviewRequestNotFound):
		notFoundResponse(c, "review request not found")
	case errors.Is(err, model.ErrReviewNotFound):
		notFoundResponse(c, "review not found")
	case errors.Is(err, model.ErrCommentNotFound):
		notFoundResponse(c, "comment not found")
	case errors.Is(err, rrModel.ErrPermissionDenied), errors.Is(err, model.ErrPermissionDenied):
		errorResponse(c, "PERMISSION_DENIED", "you do not have permission for this operation", http.StatusForbidden)
	case errors.Is(err, model.ErrReviewPublished):
		errorResponse(c, "PERMISSION_DENIED", "published reviews cannot be modified", http.StatusForbidden)
	case errors.As(err, &verr):
		formErrorResponse(c, verr.Fields)
	default:
		h.logger.Errorw(logMsg, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
