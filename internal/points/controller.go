package points

import (
	"errors"
	"net/http"

	"busline/internal/buses"
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

// ListBoardingPoints godoc
// @Summary      Boarding points of a bus, or the default three when none are configured
// @Tags         points
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Success      200 {object} response.StandardApiResponse{data=PointListResponse}
// @Router       /buses/{busId}/boarding-points [get]
func (c *Controller) ListBoardingPoints(ctx *gin.Context) {
	c.list(ctx, KindBoarding)
}

// ListDroppingPoints godoc
// @Summary      Dropping points of a bus, or the default three when none are configured
// @Tags         points
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Success      200 {object} response.StandardApiResponse{data=PointListResponse}
// @Router       /buses/{busId}/dropping-points [get]
func (c *Controller) ListDroppingPoints(ctx *gin.Context) {
	c.list(ctx, KindDropping)
}

func (c *Controller) list(ctx *gin.Context, kind Kind) {
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	points, err := c.service.ListPoints(ctx.Request.Context(), busID, kind)
	if err != nil {
		respondPointError(ctx, "Failed to get points", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Points retrieved successfully", points, nil)
}

// CreatePoint godoc
// @Summary      Add a boarding or dropping point to a bus
// @Tags         points
// @Accept       json
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Param        request body CreatePointRequest true "Point"
// @Success      201 {object} response.StandardApiResponse{data=PointResponse}
// @Security     BearerAuth
// @Router       /admin/buses/{busId}/points [post]
func (c *Controller) CreatePoint(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	var req CreatePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	point, err := c.service.CreatePoint(ctx.Request.Context(), actor, busID, req)
	if err != nil {
		respondPointError(ctx, "Failed to create point", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Point created successfully", point, nil)
}

func (c *Controller) UpdatePoint(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}
	pointID, ok := parsePointID(ctx)
	if !ok {
		return
	}

	var req UpdatePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	point, err := c.service.UpdatePoint(ctx.Request.Context(), actor, busID, pointID, req)
	if err != nil {
		respondPointError(ctx, "Failed to update point", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Point updated successfully", point, nil)
}

func (c *Controller) DeletePoint(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}
	pointID, ok := parsePointID(ctx)
	if !ok {
		return
	}

	if err := c.service.DeletePoint(ctx.Request.Context(), actor, busID, pointID); err != nil {
		respondPointError(ctx, "Failed to delete point", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Point deleted successfully", nil, nil)
}

func parsePointID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("pointId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid point ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func respondPointError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, buses.ErrBusNotFound), errors.Is(err, ErrPointNotFound):
		status = http.StatusNotFound
	case errors.Is(err, buses.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrInvalidTime), errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrSelectionIncomplete), errors.Is(err, ErrPointKindMismatch):
		status = http.StatusBadRequest
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}
