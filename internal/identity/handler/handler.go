package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/identity/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
)

// Handler handles HTTP requests for identity endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new identity handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Login handles POST /session/ requests.
func (h *Handler) Login(c *gin.Context) {
	var req identityModel.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	session, user, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, identityModel.ErrInvalidCredentials) ||
			errors.Is(err, identityModel.ErrUserInactive) {
			errorResponse(c, "LOGIN_FAILED", "invalid username or password", http.StatusUnauthorized)
			return
		}
		h.logger.Errorw("login failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.SetCookie(middleware.SessionCookieName, session.Token, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()),
		"/", "", false, true)
	c.JSON(http.StatusCreated, map[string]interface{}{
		"session": identityModel.SessionResponse{
			Token:    session.Token,
			Username: user.Username,
		},
	})
}

// Logout handles DELETE /session/ requests.
func (h *Handler) Logout(c *gin.Context) {
	token, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || token == "" {
		errorResponse(c, "NOT_LOGGED_IN", "no active session", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, identityModel.ErrSessionNotFound) {
			errorResponse(c, "NOT_LOGGED_IN", "no active session", http.StatusUnauthorized)
			return
		}
		h.logger.Errorw("logout failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// GetUser handles GET /users/:username requests.
func (h *Handler) GetUser(c *gin.Context) {
	username := c.Param("username")

	user, err := h.service.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, identityModel.ErrUserNotFound) {
			notFoundResponse(c, "user not found")
			return
		}
		h.logger.Errorw("get user failed", "username", username, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	resp := identityModel.NewUserResponse(user)

	// Contact details are only shown to the user themselves and to admins.
	actor := middleware.Actor(c)
	if actor == nil || (actor.ID != user.ID && !actor.IsAdmin) {
		resp.Email = ""
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"user": resp,
	})
}

// ResolveUsers handles POST /users/resolve/ requests. It upserts one
// local user per external directory entry and is restricted to
// administrators.
func (h *Handler) ResolveUsers(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor == nil || !actor.IsAdmin {
		errorResponse(c, "PERMISSION_DENIED", "only administrators may resolve external users", http.StatusForbidden)
		return
	}

	var req identityModel.ResolveUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	users, err := h.service.ResolveOrCreate(c.Request.Context(), req.Users)
	if err != nil {
		if errors.Is(err, identityModel.ErrInvalidLogin) {
			errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Errorw("resolve users failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	responses := make([]identityModel.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *identityModel.NewUserResponse(&users[i]))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": responses,
		"total": len(responses),
	})
}

// ListUsers handles GET /users/ requests.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Errorw("list users failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	responses := make([]identityModel.UserResponse, 0, len(users))
	actor := middleware.Actor(c)
	for i := range users {
		resp := identityModel.NewUserResponse(&users[i])
		if actor == nil || (actor.ID != users[i].ID && !actor.IsAdmin) {
			resp.Email = ""
		}
		responses = append(responses, *resp)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": responses,
		"total": len(responses),
	})
}
