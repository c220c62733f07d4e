// Package main provides the entry point for the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/database/database"
	"github.com/reviewhub/reviewhub/internal/database/migrate"
	diffRouter "github.com/reviewhub/reviewhub/internal/diff/router"
	groupRouter "github.com/reviewhub/reviewhub/internal/group/router"
	"github.com/reviewhub/reviewhub/internal/health"
	identityRepository "github.com/reviewhub/reviewhub/internal/identity/repository"
	identityRouter "github.com/reviewhub/reviewhub/internal/identity/router"
	identityService "github.com/reviewhub/reviewhub/internal/identity/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
	reviewRouter "github.com/reviewhub/reviewhub/internal/review/router"
	rrRouter "github.com/reviewhub/reviewhub/internal/reviewrequest/router"
	siteRepository "github.com/reviewhub/reviewhub/internal/site/repository"
	statisticsRouter "github.com/reviewhub/reviewhub/internal/statistics/router"
	"github.com/reviewhub/reviewhub/pkg/logger"
)

// registerModules mounts every module's routes on the given API group.
// The same set is registered once at the global prefix and once under the
// local site prefix.
func registerModules(g *gin.RouterGroup, db *gorm.DB, sugar *zap.SugaredLogger) {
	identityRouter.RegisterRoutes(g, db, sugar)
	groupRouter.RegisterRoutes(g, db, sugar)
	rrRouter.RegisterRoutes(g, db, sugar)
	diffRouter.RegisterRoutes(g, db, sugar)
	reviewRouter.RegisterRoutes(g, db, sugar)
	statisticsRouter.RegisterRoutes(g, db, sugar)
}

func main() {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sugar, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer sugar.Sync() //nolint:errcheck

	db, err := database.New()
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer database.Close(db) //nolint:errcheck

	if err := migrate.Migrate(db); err != nil {
		sugar.Fatalw("failed to apply migrations", "error", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Recovery(sugar))
	r.Use(middleware.Logger(sugar))

	authSvc := identityService.New(identityRepository.New(db, sugar), sugar)
	r.Use(middleware.Auth(authSvc, sugar))

	healthHandler := health.New(db, sugar)
	r.GET("/health", healthHandler.Check)

	api := r.Group("/api")
	registerModules(api, db, sugar)

	siteAPI := r.Group("/api/s/:site")
	siteAPI.Use(middleware.LocalSite(siteRepository.New(db, sugar), sugar))
	registerModules(siteAPI, db, sugar)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sugar.Infow("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("forced shutdown", "error", err)
	}
	sugar.Infow("server stopped")
}
