package bookings

import (
	"errors"
	"net/http"
	"strings"

	"busline/internal/buses"
	"busline/internal/points"
	"busline/internal/seats"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const IdempotencyHeader = "Idempotency-Key"

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// CreateBooking godoc
// @Summary      Confirm a booking from a live seat hold
// @Description  Passengers are matched to held seats by seat_id. Retries with the same Idempotency-Key return the original booking.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key for safe retries"
// @Param        request body CreateBookingRequest true "Booking request"
// @Success      201 {object} response.StandardApiResponse{data=BookingResponse}
// @Success      200 {object} response.StandardApiResponse{data=BookingResponse} "Replayed booking"
// @Failure      400 {object} response.StandardApiResponse
// @Failure      409 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings [post]
func (c *Controller) CreateBooking(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}
	if header := strings.TrimSpace(ctx.GetHeader(IdempotencyHeader)); header != "" {
		req.IdempotencyKey = header
	}
	if err := c.validator.Struct(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), actor.ID, req)
	if err != nil {
		respondBookingError(ctx, "Failed to create booking", err)
		return
	}

	if booking.Replayed {
		response.RespondJSON(ctx, "success", http.StatusOK, "Booking already exists for this request", booking, nil)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed", booking, nil)
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Param        bookingId path string true "Booking ID"
// @Success      200 {object} response.StandardApiResponse{data=BookingResponse}
// @Failure      404 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings/{bookingId} [get]
func (c *Controller) GetBooking(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	bookingID, ok := parseBookingID(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(ctx, "Failed to get booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetMyBookings godoc
// @Summary      List the caller's bookings
// @Tags         bookings
// @Produce      json
// @Param        page query int false "Page"
// @Param        limit query int false "Page size"
// @Param        status query string false "CONFIRMED or CANCELLED"
// @Success      200 {object} response.StandardApiResponse{data=BookingListResponse}
// @Security     BearerAuth
// @Router       /bookings [get]
func (c *Controller) GetMyBookings(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.ListUserBookings(ctx.Request.Context(), actor.ID, query)
	if err != nil {
		respondBookingError(ctx, "Failed to get bookings", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

// CancelBooking godoc
// @Summary      Cancel a booking and release its seats
// @Description  Cancelling an already cancelled booking succeeds and returns it unchanged.
// @Tags         bookings
// @Produce      json
// @Param        bookingId path string true "Booking ID"
// @Success      200 {object} response.StandardApiResponse{data=BookingResponse}
// @Failure      403 {object} response.StandardApiResponse
// @Failure      404 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings/{bookingId}/cancel [post]
func (c *Controller) CancelBooking(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	bookingID, ok := parseBookingID(ctx)
	if !ok {
		return
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(ctx, "Failed to cancel booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled", booking, nil)
}

// DownloadTicket godoc
// @Summary      Download the PDF e-ticket of a confirmed booking
// @Tags         bookings
// @Produce      application/pdf
// @Param        bookingId path string true "Booking ID"
// @Success      200 {file} binary
// @Failure      409 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings/{bookingId}/ticket [get]
func (c *Controller) DownloadTicket(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	bookingID, ok := parseBookingID(ctx)
	if !ok {
		return
	}

	pdf, filename, err := c.service.Ticket(ctx.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(ctx, "Failed to render ticket", err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

// GetBusBookings godoc
// @Summary      List bookings on a bus for its owner
// @Tags         admin
// @Produce      json
// @Param        busId path string true "Bus ID"
// @Param        page query int false "Page"
// @Param        limit query int false "Page size"
// @Param        status query string false "CONFIRMED or CANCELLED"
// @Success      200 {object} response.StandardApiResponse{data=BookingListResponse}
// @Security     BearerAuth
// @Router       /admin/buses/{busId}/bookings [get]
func (c *Controller) GetBusBookings(ctx *gin.Context) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, err.Error())
		return
	}
	busID, ok := buses.ParseBusID(ctx)
	if !ok {
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.ListBusBookings(ctx.Request.Context(), actor, busID, query)
	if err != nil {
		respondBookingError(ctx, "Failed to get bookings", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func parseBookingID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func respondBookingError(ctx *gin.Context, message string, err error) {
	var seatErr *seats.SeatError
	switch {
	case errors.As(err, &seatErr) && errors.Is(err, seats.ErrSeatUnavailable):
		response.RespondJSON(ctx, "error", http.StatusConflict, "Seats are no longer available", gin.H{"seat_ids": seatErr.SeatIDs}, err.Error())
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, buses.ErrBusNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, message, nil, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, buses.ErrForbidden):
		response.RespondJSON(ctx, "error", http.StatusForbidden, message, nil, err.Error())
	case errors.Is(err, ErrHoldInvalid),
		errors.Is(err, ErrRequestInProgress),
		errors.Is(err, ErrBookingCancelled),
		errors.Is(err, seats.ErrSeatNotFound):
		response.RespondJSON(ctx, "error", http.StatusConflict, message, nil, err.Error())
	case errors.Is(err, ErrPassengerMismatch),
		errors.Is(err, points.ErrPointNotFound),
		errors.Is(err, points.ErrPointKindMismatch),
		errors.Is(err, points.ErrSelectionIncomplete):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, message, nil, err.Error())
	case errors.Is(err, seats.ErrHoldsUnavailable):
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, message, nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, message, nil, err.Error())
	}
}
