// Package router provides identity module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/identity/handler"
	"github.com/reviewhub/reviewhub/internal/identity/repository"
	"github.com/reviewhub/reviewhub/internal/identity/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
)

// RegisterRoutes registers identity module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(repo, logger)
	h := handler.New(svc, logger)

	g.POST("/session/", h.Login)
	g.DELETE("/session/", middleware.RequireAuth(), h.Logout)
	g.GET("/users/", middleware.RequireAuth(), h.ListUsers)
	g.POST("/users/resolve/", middleware.RequireAuth(), h.ResolveUsers)
	g.GET("/users/:username/", middleware.RequireAuth(), h.GetUser)
}
