package buses

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupBusRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	public := rg.Group("/buses")
	{
		public.GET("", controller.ListBuses)     // GET /api/v1/buses?origin=&destination=&date=
		public.GET("/:busId", controller.GetBus) // GET /api/v1/buses/:busId
	}

	admin := rg.Group("/admin/buses")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(users.RoleOwner, users.RoleAdmin))
	{
		admin.POST("", controller.CreateBus)         // POST /api/v1/admin/buses
		admin.PATCH("/:busId", controller.UpdateBus) // PATCH /api/v1/admin/buses/:busId
	}
}
