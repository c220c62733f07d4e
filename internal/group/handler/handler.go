package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	groupModel "github.com/reviewhub/reviewhub/internal/group/model"
	"github.com/reviewhub/reviewhub/internal/group/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
)

// Handler handles HTTP requests for group endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new group handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// AddGroup handles POST /groups/ requests.
func (h *Handler) AddGroup(c *gin.Context) {
	var req groupModel.AddGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.AddGroup(c.Request.Context(), middleware.Actor(c), middleware.SiteID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, groupModel.ErrPermissionDenied):
			errorResponse(c, "PERMISSION_DENIED", "you do not have permission to create groups", http.StatusForbidden)
		case errors.Is(err, groupModel.ErrGroupExists):
			errorResponse(c, "GROUP_EXISTS", "a group with this name already exists", http.StatusConflict)
		case errors.Is(err, groupModel.ErrInvalidGroupName):
			errorResponse(c, "INVALID_REQUEST", "group name is required", http.StatusBadRequest)
		case errors.Is(err, groupModel.ErrMemberNotFound):
			errorResponse(c, "INVALID_REQUEST", "unknown member username", http.StatusBadRequest)
		default:
			h.logger.Errorw("error creating group", "error", err)
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"group": resp,
	})
}

// GetGroup handles GET /groups/:name requests.
func (h *Handler) GetGroup(c *gin.Context) {
	name := c.Param("name")

	resp, err := h.service.GetGroup(c.Request.Context(), name, middleware.SiteID(c))
	if err != nil {
		if errors.Is(err, groupModel.ErrGroupNotFound) {
			notFoundResponse(c, "review group not found")
			return
		}
		h.logger.Errorw("error fetching group", "name", name, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"group": resp,
	})
}
