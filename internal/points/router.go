package points

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupPointRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	rg.GET("/buses/:busId/boarding-points", controller.ListBoardingPoints) // GET /api/v1/buses/:busId/boarding-points
	rg.GET("/buses/:busId/dropping-points", controller.ListDroppingPoints) // GET /api/v1/buses/:busId/dropping-points

	admin := rg.Group("/admin/buses/:busId/points")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(users.RoleOwner, users.RoleAdmin))
	{
		admin.POST("", controller.CreatePoint)            // POST /api/v1/admin/buses/:busId/points
		admin.PATCH("/:pointId", controller.UpdatePoint)  // PATCH /api/v1/admin/buses/:busId/points/:pointId
		admin.DELETE("/:pointId", controller.DeletePoint) // DELETE /api/v1/admin/buses/:busId/points/:pointId
	}
}
