package bookings

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"
	"busline/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg))
	{
		bookings.POST("", controller.CreateBooking)                    // POST /api/v1/bookings
		bookings.GET("", controller.GetMyBookings)                     // GET /api/v1/bookings
		bookings.GET("/:bookingId", controller.GetBooking)             // GET /api/v1/bookings/:bookingId
		bookings.POST("/:bookingId/cancel", controller.CancelBooking)  // POST /api/v1/bookings/:bookingId/cancel
		bookings.GET("/:bookingId/ticket", controller.DownloadTicket)  // GET /api/v1/bookings/:bookingId/ticket
	}

	admin := rg.Group("/admin/buses/:busId/bookings")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(users.RoleOwner, users.RoleAdmin))
	{
		admin.GET("", controller.GetBusBookings) // GET /api/v1/admin/buses/:busId/bookings
	}
}
