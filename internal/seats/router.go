package seats

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	rg.GET("/buses/:busId/seats", controller.ListSeats) // GET /api/v1/buses/:busId/seats

	authed := rg.Group("")
	authed.Use(middleware.JWTAuth(cfg))
	{
		authed.POST("/buses/:busId/holds", controller.HoldSeats)       // POST /api/v1/buses/:busId/holds
		authed.GET("/holds", controller.GetMyHolds)                    // GET /api/v1/holds
		authed.GET("/holds/:holdId/validate", controller.ValidateHold) // GET /api/v1/holds/:holdId/validate
		authed.DELETE("/holds/:holdId", controller.ReleaseHold)        // DELETE /api/v1/holds/:holdId
	}

	admin := rg.Group("/admin/buses/:busId/seats")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(users.RoleOwner, users.RoleAdmin))
	{
		admin.POST("", controller.CreateSeats)         // POST /api/v1/admin/buses/:busId/seats
		admin.PATCH("/:seatId", controller.UpdateSeat) // PATCH /api/v1/admin/buses/:busId/seats/:seatId
	}
}
