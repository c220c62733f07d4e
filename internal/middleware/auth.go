package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
	identityService "github.com/reviewhub/reviewhub/internal/identity/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "reviewhub_session"

// External bug-tracker credential cookies, checked when no local
// session or basic credentials are present.
const (
	externalLoginCookie  = "Bugzilla_login"
	externalSecretCookie = "Bugzilla_logincookie"
)

const actorKey = "middleware.actor"

// Actor returns the authenticated user for the request, or nil when the
// request is anonymous.
func Actor(c *gin.Context) *identityModel.User {
	value, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	user, ok := value.(*identityModel.User)
	if !ok {
		return nil
	}
	return user
}

// Auth returns a middleware that resolves the acting user from, in order:
// the session cookie, HTTP basic credentials, or an external bug-tracker
// cookie pair. Requests with no usable credentials proceed anonymously.
func Auth(svc identityService.Service, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
			user, authErr := svc.AuthenticateSession(ctx, token)
			if authErr == nil {
				c.Set(actorKey, user)
				c.Next()
				return
			}
			logger.Debugw("session authentication failed", "error", authErr)
		}

		if username, password, ok := c.Request.BasicAuth(); ok {
			user, authErr := svc.AuthenticateBasic(ctx, username, password)
			if authErr == nil {
				c.Set(actorKey, user)
				c.Next()
				return
			}
			logger.Debugw("basic authentication failed", "username", username, "error", authErr)
		}

		login, loginErr := c.Cookie(externalLoginCookie)
		secret, secretErr := c.Cookie(externalSecretCookie)
		if loginErr == nil && secretErr == nil && login != "" && secret != "" {
			session, user, authErr := svc.AuthenticateExternal(ctx, login, secret)
			if authErr == nil {
				c.SetCookie(SessionCookieName, session.Token,
					int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()), "/", "", false, true)
				c.Set(actorKey, user)
				c.Next()
				return
			}
			logger.Debugw("external cookie authentication failed", "login", login, "error", authErr)
		}

		c.Next()
	}
}

// RequireAuth returns a middleware that rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "NOT_LOGGED_IN",
					"message": "you are not logged in",
				},
			})
			return
		}
		c.Next()
	}
}
