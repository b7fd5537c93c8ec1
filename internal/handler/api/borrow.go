package api

import (
	"errors"
	"net/http"

	"library-api/internal/domain/authz"
	reqdto "library-api/internal/handler/dto/request"
	resdto "library-api/internal/handler/dto/response"
	"library-api/internal/handler/middleware"
	"library-api/internal/usecase/commands"
	"library-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BorrowHandler struct {
	borrowCommands commands.BorrowCommands
	borrowQueries  queries.BorrowQueries
}

func NewBorrowHandler(borrowCommands commands.BorrowCommands, borrowQueries queries.BorrowQueries) *BorrowHandler {
	return &BorrowHandler{
		borrowCommands: borrowCommands,
		borrowQueries:  borrowQueries,
	}
}

// @Summary Checkout book
// @Description Borrow an available copy of a book
// @Tags borrows
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CheckoutRequest true "Checkout request"
// @Success 201 {object} resdto.BorrowResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /borrows [post]
func (h *BorrowHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req reqdto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.borrowCommands.Checkout(c.Request.Context(), userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		case errors.Is(err, commands.ErrBookArchived):
			c.JSON(http.StatusConflict, gin.H{"error": "Book is archived"})
		case errors.Is(err, commands.ErrBookNotAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": "No copies available, reserve instead"})
		case errors.Is(err, commands.ErrDuplicateBorrow):
			c.JSON(http.StatusConflict, gin.H{"error": "Book already borrowed by this user"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.NewBorrowResponse(view))
}

// @Summary List borrows
// @Description Students see their own borrows; staff may filter across all users
// @Tags borrows
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param user_id query string false "Filter by user (staff)"
// @Param book_id query string false "Filter by book (staff)"
// @Param status query string false "Filter by status (staff)"
// @Success 200 {object} resdto.PageResponse[resdto.BorrowResponse]
// @Failure 401 {object} map[string]string
// @Router /borrows [get]
func (h *BorrowHandler) List(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, limit := parsePaging(c)

	// Staff get the cross-user listing; everyone else gets their own.
	if authz.Can(actor, authz.ActionBorrowListAll, authz.Resource{}) {
		filter := queries.BorrowListFilter{Status: c.Query("status")}
		if raw := c.Query("user_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id parameter"})
				return
			}
			filter.UserID = id
		}
		if raw := c.Query("book_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book_id parameter"})
				return
			}
			filter.BookID = id
		}

		result, err := h.borrowQueries.ListAll(c.Request.Context(), filter, page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, resdto.NewPage(result, resdto.NewBorrowResponse))
		return
	}

	result, err := h.borrowQueries.ListByUser(c.Request.Context(), actor.ID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, resdto.NewPage(result, resdto.NewBorrowResponse))
}

// @Summary Get borrow
// @Description Get one borrow; owners and staff only
// @Tags borrows
// @Security BearerAuth
// @Produce json
// @Param id path string true "Borrow ID"
// @Success 200 {object} resdto.BorrowResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /borrows/{id} [get]
func (h *BorrowHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	borrowID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.borrowQueries.GetByID(c.Request.Context(), actor, borrowID)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrBorrowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Borrow not found"})
		case errors.Is(err, queries.ErrBorrowAccess):
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.NewBorrowResponse(view))
}

// @Summary Renew borrow
// @Description Extend the due date by one loan period
// @Tags borrows
// @Security BearerAuth
// @Produce json
// @Param id path string true "Borrow ID"
// @Success 200 {object} resdto.BorrowResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /borrows/{id}/renew [post]
func (h *BorrowHandler) Renew(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	borrowID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.borrowCommands.Renew(c.Request.Context(), actor, borrowID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBorrowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Borrow not found"})
		case errors.Is(err, commands.ErrBorrowAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		case errors.Is(err, commands.ErrBorrowNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot renew returned borrow"})
		case errors.Is(err, commands.ErrRenewalLimit):
			c.JSON(http.StatusConflict, gin.H{"error": "Renewal limit reached"})
		case errors.Is(err, commands.ErrReservedByOther):
			c.JSON(http.StatusConflict, gin.H{"error": "Book is reserved by another user"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.NewBorrowResponse(view))
}

// @Summary Return borrow
// @Description Close the borrow, compute any fine, and release the copy
// @Tags borrows
// @Security BearerAuth
// @Produce json
// @Param id path string true "Borrow ID"
// @Success 200 {object} resdto.ReturnResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /borrows/{id}/return [post]
func (h *BorrowHandler) Return(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	borrowID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.borrowCommands.Return(c.Request.Context(), actor, borrowID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBorrowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Borrow not found"})
		case errors.Is(err, commands.ErrBorrowAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		case errors.Is(err, commands.ErrBorrowNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Borrow already returned"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.ReturnResponse{
		Borrow:    resdto.NewBorrowResponse(result.Borrow),
		FineCents: result.FineCents,
	})
}

// @Summary List overdue borrows
// @Description Active borrows past due, annotated with projected fines
// @Tags borrows
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.PageResponse[resdto.OverdueBorrowResponse]
// @Failure 403 {object} map[string]string
// @Router /borrows/overdue [get]
func (h *BorrowHandler) ListOverdue(c *gin.Context) {
	page, limit := parsePaging(c)

	result, err := h.borrowQueries.ListOverdue(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.NewPage(result, resdto.NewOverdueBorrowResponse))
}
