package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/model"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/service"
	scmModel "github.com/reviewhub/reviewhub/internal/scm/model"
)

// Handler handles HTTP requests for review request endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new review request handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// requestID parses the :review_request_id path parameter.
func requestID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("review_request_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "review request not found")
		return 0, false
	}
	return id, true
}

// Create handles POST /review-requests/ requests.
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateReviewRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), middleware.Actor(c), middleware.SiteID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPermissionDenied):
			errorResponse(c, "PERMISSION_DENIED", "only administrators may submit as another user", http.StatusForbidden)
		case errors.Is(err, identityModel.ErrUserNotFound):
			formErrorResponse(c, map[string][]string{
				"submit_as": {"unknown username"},
			})
		case errors.Is(err, scmModel.ErrRepositoryNotFound):
			errorResponse(c, "INVALID_REPOSITORY", "the repository was not found", http.StatusBadRequest)
		default:
			h.logger.Errorw("error creating review request", "error", err)
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"review_request": resp,
	})
}

// parseListQuery builds the service list query from URL parameters.
// Unknown status values fail with a field error.
func parseListQuery(c *gin.Context) (service.ListQuery, map[string][]string) {
	fields := map[string][]string{}
	f := repository.Filters{LocalSiteID: middleware.SiteID(c)}

	status := c.DefaultQuery("status", "pending")
	switch status {
	case "all":
	default:
		ch, ok := model.ParseStatus(status)
		if !ok {
			fields["status"] = []string{"unknown status value"}
		} else {
			f.Statuses = []string{ch}
		}
	}

	f.FromUser = c.Query("from-user")
	if v := c.Query("to-groups"); v != "" {
		f.ToGroups = splitParam(v)
	}
	if v := c.Query("to-users"); v != "" {
		f.ToUsers = splitParam(v)
	}
	if v := c.Query("to-users-directly"); v != "" {
		f.ToUsersDirectly = splitParam(v)
	}
	if v := c.Query("repository"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fields["repository"] = []string{"must be a repository id"}
		} else {
			f.RepositoryID = &id
		}
	}
	if v := c.Query("changenum"); v != "" {
		num, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fields["changenum"] = []string{"must be an integer"}
		} else {
			f.Changenum = &num
		}
	}
	if v := c.Query("commit-id"); v != "" {
		f.CommitID = &v
	}
	parseTimeParam(c, "time-added-from", &f.TimeAddedFrom, fields)
	parseTimeParam(c, "time-added-to", &f.TimeAddedTo, fields)
	parseTimeParam(c, "last-updated-from", &f.LastUpdatedFrom, fields)
	parseTimeParam(c, "last-updated-to", &f.LastUpdatedTo, fields)
	if v := c.Query("ship-it"); v != "" {
		shipIt := v == "1" || v == "true"
		f.ShipIt = &shipIt
	}

	q := service.ListQuery{
		Filters:    f,
		CountsOnly: c.Query("counts-only") == "1" || c.Query("counts-only") == "true",
	}
	if len(fields) > 0 {
		return q, fields
	}
	return q, nil
}

func splitParam(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTimeParam(c *gin.Context, name string, dst **time.Time, fields map[string][]string) {
	v := c.Query(name)
	if v == "" {
		return
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		fields[name] = []string{"must be an ISO 8601 timestamp"}
		return
	}
	*dst = &t
}

// List handles GET /review-requests/ requests.
func (h *Handler) List(c *gin.Context) {
	q, fields := parseListQuery(c)
	if fields != nil {
		formErrorResponse(c, fields)
		return
	}

	if q.CountsOnly {
		counts, err := h.service.Count(c.Request.Context(), middleware.Actor(c), q)
		if err != nil {
			h.logger.Errorw("error counting review requests", "error", err)
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, map[string]interface{}{
			"counts": counts,
		})
		return
	}

	resp, err := h.service.List(c.Request.Context(), middleware.Actor(c), q)
	if err != nil {
		h.logger.Errorw("error listing review requests", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_requests": resp,
		"total_results":   len(resp),
	})
}

// Get handles GET /review-requests/:review_request_id/ requests.
func (h *Handler) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c))
	if err != nil {
		h.respondError(c, err, "error fetching review request")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": resp,
	})
}

// Update handles PUT /review-requests/:review_request_id/ requests:
// closing, reopening, or direct status changes.
func (h *Handler) Update(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req model.UpdateReviewRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidStatus):
			formErrorResponse(c, map[string][]string{
				"status": {"invalid status transition"},
			})
		case errors.Is(err, model.ErrNotClosed):
			formErrorResponse(c, map[string][]string{
				"status": {"the review request is not closed"},
			})
		default:
			h.respondError(c, err, "error updating review request")
		}
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": resp,
	})
}

// Delete handles DELETE /review-requests/:review_request_id/ requests.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c)); err != nil {
		h.respondError(c, err, "error deleting review request")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDraft handles GET /review-requests/:review_request_id/draft/ requests.
func (h *Handler) GetDraft(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetDraft(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c))
	if err != nil {
		if errors.Is(err, model.ErrDraftNotFound) {
			notFoundResponse(c, "the review request has no draft")
			return
		}
		h.respondError(c, err, "error fetching draft")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"draft": resp,
	})
}

// UpdateDraft handles PUT /review-requests/:review_request_id/draft/
// requests. Setting public=true publishes the draft.
func (h *Handler) UpdateDraft(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req model.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	published, draft, err := h.service.UpdateDraft(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSummaryRequired):
			formErrorResponse(c, map[string][]string{
				"summary": {"a summary is required before publishing"},
			})
		case errors.Is(err, model.ErrEmptyPublish):
			errorResponse(c, "NOTHING_TO_PUBLISH", "the draft has no changes to publish", http.StatusConflict)
		case errors.Is(err, groupModel.ErrGroupNotFound):
			formErrorResponse(c, map[string][]string{
				"target_groups": {"unknown group name"},
			})
		case errors.Is(err, identityModel.ErrUserNotFound):
			formErrorResponse(c, map[string][]string{
				"target_people": {"unknown username"},
			})
		default:
			h.respondError(c, err, "error updating draft")
		}
		return
	}

	if published != nil {
		c.JSON(http.StatusOK, map[string]interface{}{
			"review_request": published,
		})
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{
		"draft": draft,
	})
}

// DeleteDraft handles DELETE /review-requests/:review_request_id/draft/
// requests, discarding pending edits.
func (h *Handler) DeleteDraft(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	if err := h.service.DiscardDraft(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c)); err != nil {
		if errors.Is(err, model.ErrDraftNotFound) {
			notFoundResponse(c, "the review request has no draft")
			return
		}
		h.respondError(c, err, "error discarding draft")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListChanges handles GET /review-requests/:review_request_id/changes/ requests.
func (h *Handler) ListChanges(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListChanges(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c))
	if err != nil {
		h.respondError(c, err, "error listing changes")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"changes":       resp,
		"total_results": len(resp),
	})
}

// GetChange handles GET /review-requests/:review_request_id/changes/:change_id/ requests.
func (h *Handler) GetChange(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	changeID, err := strconv.ParseUint(c.Param("change_id"), 10, 64)
	if err != nil {
		notFoundResponse(c, "change description not found")
		return
	}

	resp, err := h.service.GetChange(c.Request.Context(), middleware.Actor(c), id, middleware.SiteID(c), changeID)
	if err != nil {
		if errors.Is(err, model.ErrChangeNotFound) {
			notFoundResponse(c, "change description not found")
			return
		}
		h.respondError(c, err, "error fetching change")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"change": resp,
	})
}

// respondError maps the shared service errors: missing requests are 404,
// hidden ones are 403, everything else is a logged 500.
func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, model.ErrReviewRequestNotFound):
		notFoundResponse(c, "review request not found")
	case errors.Is(err, model.ErrPermissionDenied):
		permissionDeniedResponse(c)
	default:
		h.logger.Errorw(logMsg, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
