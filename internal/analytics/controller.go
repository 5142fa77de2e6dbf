package analytics

import (
	"errors"
	"net/http"
	"strconv"

	"busline/internal/buses"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetBusReport godoc
// @Summary      Seat occupancy, revenue and point usage for one bus
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        busId path string true "Bus ID"
// @Success      200 {object} response.StandardApiResponse{data=BusReport}
// @Failure      403 {object} response.StandardApiResponse
// @Failure      404 {object} response.StandardApiResponse
// @Router       /admin/buses/{busId}/stats [get]
func (c *Controller) GetBusReport(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	report, err := c.service.GetBusReport(ctx.Request.Context(), actor, busID)
	if err != nil {
		respondAnalyticsError(ctx, "Failed to get bus report", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bus report retrieved successfully", report, nil)
}

// GetDailyStats godoc
// @Summary      Bookings and revenue per day for one bus
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        busId path string true "Bus ID"
// @Param        days query int false "Days to include (default 7, max 90)"
// @Success      200 {object} response.StandardApiResponse{data=[]DailyBookingStats}
// @Router       /admin/buses/{busId}/stats/daily [get]
func (c *Controller) GetDailyStats(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	days := defaultStatsDays
	if raw := ctx.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "days must be a positive integer", nil, nil)
			return
		}
		days = n
	}

	stats, err := c.service.GetDailyStats(ctx.Request.Context(), actor, busID, days)
	if err != nil {
		respondAnalyticsError(ctx, "Failed to get daily stats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Daily stats retrieved successfully", stats, nil)
}

func respondAnalyticsError(ctx *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, buses.ErrBusNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Bus not found", nil, nil)
	case errors.Is(err, buses.ErrForbidden):
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Not allowed to view this bus", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, message, nil, err.Error())
	}
}
