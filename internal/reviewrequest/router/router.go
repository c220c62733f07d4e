// Package router provides review request module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	diffRepository "github.com/reviewhub/reviewhub/internal/diff/repository"
	groupRepository "github.com/reviewhub/reviewhub/internal/group/repository"
	identityRepository "github.com/reviewhub/reviewhub/internal/identity/repository"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/handler"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
	"github.com/reviewhub/reviewhub/internal/reviewrequest/service"
	scmRepository "github.com/reviewhub/reviewhub/internal/scm/repository"
)

// RegisterRoutes registers review request module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(
		repo,
		identityRepository.New(db, logger),
		groupRepository.New(db, logger),
		scmRepository.New(db, logger),
		diffRepository.New(db, logger),
		db,
		logger,
	)
	h := handler.New(svc, logger)

	g.GET("/review-requests/", h.List)
	g.POST("/review-requests/", middleware.RequireAuth(), h.Create)
	g.GET("/review-requests/:review_request_id/", h.Get)
	g.PUT("/review-requests/:review_request_id/", middleware.RequireAuth(), h.Update)
	g.DELETE("/review-requests/:review_request_id/", middleware.RequireAuth(), h.Delete)

	g.GET("/review-requests/:review_request_id/draft/", middleware.RequireAuth(), h.GetDraft)
	g.PUT("/review-requests/:review_request_id/draft/", middleware.RequireAuth(), h.UpdateDraft)
	g.DELETE("/review-requests/:review_request_id/draft/", middleware.RequireAuth(), h.DeleteDraft)

	g.GET("/review-requests/:review_request_id/changes/", h.ListChanges)
	g.GET("/review-requests/:review_request_id/changes/:change_id/", h.GetChange)
}
