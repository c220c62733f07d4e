// Package router provides group module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/group/handler"
	"github.com/reviewhub/reviewhub/internal/group/repository"
	"github.com/reviewhub/reviewhub/internal/group/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
)

// RegisterRoutes registers group module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(repo, db, logger)
	h := handler.New(svc, logger)

	g.POST("/groups/", middleware.RequireAuth(), h.AddGroup)
	g.GET("/groups/:name/", middleware.RequireAuth(), h.GetGroup)
}
