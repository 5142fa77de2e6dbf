package analytics

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	stats := rg.Group("/admin/buses/:busId/stats")
	stats.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(users.RoleOwner, users.RoleAdmin))
	{
		stats.GET("", controller.GetBusReport)        // GET /api/v1/admin/buses/:busId/stats
		stats.GET("/daily", controller.GetDailyStats) // GET /api/v1/admin/buses/:busId/stats/daily
	}
}
