package buses

import (
	"errors"
	"net/http"

	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBus godoc
// @Summary      Register a bus departure
// @Tags         buses
// @Accept       json
// @Produce      json
// @Param        request body CreateBusRequest true "Bus"
// @Success      201 {object} response.StandardApiResponse{data=BusResponse}
// @Security     BearerAuth
// @Router       /admin/buses [post]
func (c *Controller) CreateBus(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	var req CreateBusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	bus, err := c.service.CreateBus(ctx.Request.Context(), actor, req)
	if err != nil {
		c.respondError(ctx, "Failed to create bus", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Bus created successfully", bus, nil)
}

// GetBus godoc
// @Summary      Get a bus
// @Tags         buses
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Success      200 {object} response.StandardApiResponse{data=BusResponse}
// @Router       /buses/{busId} [get]
func (c *Controller) GetBus(ctx *gin.Context) {
	busID, ok := ParseBusID(ctx)
	if !ok {
		return
	}

	bus, err := c.service.GetBus(ctx.Request.Context(), busID)
	if err != nil {
		c.respondError(ctx, "Failed to get bus", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bus retrieved successfully", bus, nil)
}

// ListBuses godoc
// @Summary      Search departures
// @Tags         buses
// @Produce      json
// @Param        origin query string false "Origin"
// @Param        destination query string false "Destination"
// @Param        date query string false "Departure date (YYYY-MM-DD)"
// @Success      200 {object} response.StandardApiResponse{data=BusListResponse}
// @Router       /buses [get]
func (c *Controller) ListBuses(ctx *gin.Context) {
	var query ListBusesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListBuses(ctx.Request.Context(), query)
	if err != nil {
		c.respondError(ctx, "Failed to list buses", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Buses retrieved successfully", result, nil)
}

func (c *Controller) UpdateBus(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := ParseBusID(ctx)
	if !ok {
		return
	}

	var req UpdateBusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	bus, err := c.service.UpdateBus(ctx.Request.Context(), actor, busID, req)
	if err != nil {
		c.respondError(ctx, "Failed to update bus", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bus updated successfully", bus, nil)
}

func (c *Controller) respondError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBusNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrInvalidSchedule), errors.Is(err, ErrInvalidBusID):
		status = http.StatusBadRequest
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}

// ParseBusID reads the :busId path param, answering 400 itself when it is malformed
func ParseBusID(ctx *gin.Context) (uuid.UUID, bool) {
	busID, err := uuid.Parse(ctx.Param("busId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid bus ID", nil, ErrInvalidBusID.Error())
		return uuid.Nil, false
	}
	return busID, true
}
