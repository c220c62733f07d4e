package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	siteModel "github.com/reviewhub/reviewhub/internal/site/model"
	siteRepository "github.com/reviewhub/reviewhub/internal/site/repository"
)

const localSiteKey = "middleware.localsite"

// Site returns the local site scoping the request, or nil for the global site.
func Site(c *gin.Context) *siteModel.LocalSite {
	value, ok := c.Get(localSiteKey)
	if !ok {
		return nil
	}
	site, ok := value.(*siteModel.LocalSite)
	if !ok {
		return nil
	}
	return site
}

// SiteID returns the local site id scoping the request, or nil for the
// global site.
func SiteID(c *gin.Context) *uint64 {
	site := Site(c)
	if site == nil {
		return nil
	}
	return &site.ID
}

// LocalSite returns a middleware that resolves the :site path parameter and
// enforces membership. Cross-site access is always a 403, regardless of any
// other permission rule.
func LocalSite(repo siteRepository.Repository, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("site")

		site, err := repo.GetByName(c.Request.Context(), name)
		if err != nil {
			if errors.Is(err, siteModel.ErrSiteNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error": gin.H{
						"code":    "DOES_NOT_EXIST",
						"message": "local site not found",
					},
				})
				return
			}
			logger.Errorw("local site lookup failed", "site", name, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "internal server error",
				},
			})
			return
		}

		actor := Actor(c)
		if actor == nil || (!actor.IsAdmin && !site.IsMember(actor.ID)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "PERMISSION_DENIED",
					"message": "you do not have access to this local site",
				},
			})
			return
		}

		c.Set(localSiteKey, site)
		c.Next()
	}
}
