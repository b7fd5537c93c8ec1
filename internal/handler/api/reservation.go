package api

import (
	"errors"
	"net/http"

	reqdto "library-api/internal/handler/dto/request"
	resdto "library-api/internal/handler/dto/response"
	"library-api/internal/handler/middleware"
	"library-api/internal/usecase/commands"
	"library-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
}

func NewReservationHandler(reservationCommands commands.ReservationCommands, reservationQueries queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
	}
}

// @Summary Reserve book
// @Description Queue a claim on a fully borrowed book
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CreateReservationRequest true "Reservation request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req reqdto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.reservationCommands.Reserve(c.Request.Context(), userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		case errors.Is(err, commands.ErrBookArchived):
			c.JSON(http.StatusConflict, gin.H{"error": "Book is archived"})
		case errors.Is(err, commands.ErrBookStillAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": "Book has available copies, borrow directly"})
		case errors.Is(err, commands.ErrDuplicateBorrow):
			c.JSON(http.StatusConflict, gin.H{"error": "Book already borrowed by this user"})
		case errors.Is(err, commands.ErrDuplicateReservation):
			c.JSON(http.StatusConflict, gin.H{"error": "Active reservation already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.NewReservationResponse(view))
}

// @Summary List own reservations
// @Tags reservations
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.PageResponse[resdto.ReservationResponse]
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit := parsePaging(c)

	result, err := h.reservationQueries.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.NewPage(result, resdto.NewReservationResponse))
}

// @Summary Cancel reservation
// @Description Deactivate a reservation; cancelling twice is a no-op
// @Tags reservations
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	reservationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	err := h.reservationCommands.Cancel(c.Request.Context(), actor, reservationID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
		case errors.Is(err, commands.ErrReservationAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Sweep expired reservations
// @Description Deactivate every reservation past its expiry
// @Tags reservations
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.ExpireSweepResponse
// @Failure 403 {object} map[string]string
// @Router /reservations/expire-sweep [post]
func (h *ReservationHandler) ExpireSweep(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	swept, err := h.reservationCommands.ExpireSweep(c.Request.Context(), actor)
	if err != nil {
		if errors.Is(err, commands.ErrReservationAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.ExpireSweepResponse{SweptCount: swept})
}
