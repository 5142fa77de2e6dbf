package seats

import (
	"errors"
	"net/http"

	"busline/internal/buses"
	"busline/internal/selection"
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

// ListSeats godoc
// @Summary      Seat map of a bus grouped by deck
// @Tags         seats
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Success      200 {object} response.StandardApiResponse{data=SeatMapResponse}
// @Router       /buses/{busId}/seats [get]
func (c *Controller) ListSeats(ctx *gin.Context) {
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	seatMap, err := c.service.ListSeats(ctx.Request.Context(), busID)
	if err != nil {
		respondSeatError(ctx, "Failed to get seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", seatMap, nil)
}

func (c *Controller) CreateSeats(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	var req CreateSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	created, err := c.service.CreateSeats(ctx.Request.Context(), actor, busID, req)
	if err != nil {
		respondSeatError(ctx, "Failed to create seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats created successfully", created, nil)
}

// UpdateSeat godoc
// @Summary      Toggle status, set price or sellable flag of a seat
// @Tags         seats
// @Accept       json
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Param        seatId path string true "Seat label"
// @Param        request body UpdateSeatRequest true "Edit with the version last seen"
// @Success      200 {object} response.StandardApiResponse{data=SeatResponse}
// @Failure      409 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /admin/buses/{busId}/seats/{seatId} [patch]
func (c *Controller) UpdateSeat(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	var req UpdateSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	seat, err := c.service.UpdateSeat(ctx.Request.Context(), actor, busID, ctx.Param("seatId"), req)
	if err != nil {
		respondSeatError(ctx, "Failed to update seat", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat updated successfully", seat, nil)
}

// HoldSeats godoc
// @Summary      Hold seats for the caller until the hold expires
// @Tags         seats
// @Accept       json
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Param        request body SeatHoldRequest true "Seat tokens"
// @Success      201 {object} response.StandardApiResponse{data=SeatHoldResponse}
// @Failure      409 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /buses/{busId}/holds [post]
func (c *Controller) HoldSeats(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	var req SeatHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	hold, err := c.service.HoldSeats(ctx.Request.Context(), busID, actor.ID, req)
	if err != nil {
		respondSeatError(ctx, "Failed to hold seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held successfully", hold, nil)
}

func (c *Controller) ReleaseHold(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	if err := c.service.ReleaseHold(ctx.Request.Context(), ctx.Param("holdId"), actor.ID); err != nil {
		respondSeatError(ctx, "Failed to release hold", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released successfully", nil, nil)
}

func (c *Controller) ValidateHold(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	result, err := c.service.ValidateHold(ctx.Request.Context(), ctx.Param("holdId"), actor.ID)
	if err != nil {
		respondSeatError(ctx, "Failed to validate hold", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold validated", result, nil)
}

func (c *Controller) GetMyHolds(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	holds, err := c.service.GetUserHolds(ctx.Request.Context(), actor.ID)
	if err != nil {
		respondSeatError(ctx, "Failed to get holds", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Holds retrieved successfully", holds, nil)
}

func respondSeatError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, buses.ErrBusNotFound), errors.Is(err, ErrSeatNotFound), errors.Is(err, ErrHoldNotFound):
		status = http.StatusNotFound
	case errors.Is(err, buses.ErrForbidden), errors.Is(err, ErrHoldForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrSeatUnavailable), errors.Is(err, ErrPriceChanged), errors.Is(err, ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, selection.ErrInvalidToken), errors.Is(err, ErrInvalidLayout), errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrNoSeatsSelected), errors.Is(err, ErrTooManySeats):
		status = http.StatusBadRequest
	case errors.Is(err, ErrHoldsUnavailable):
		status = http.StatusServiceUnavailable
	}

	var details interface{} = err.Error()
	var seatErr *SeatError
	if errors.As(err, &seatErr) {
		details = gin.H{"reason": seatErr.Reason.Error(), "seat_ids": seatErr.SeatIDs}
	}
	response.RespondJSON(ctx, "error", status, message, nil, details)
}
