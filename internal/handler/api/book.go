package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "library-api/internal/handler/dto/request"
	resdto "library-api/internal/handler/dto/response"
	"library-api/internal/handler/middleware"
	"library-api/internal/usecase/commands"
	"library-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookHandler struct {
	bookCommands commands.BookCommands
	bookQueries  queries.BookQueries
}

func NewBookHandler(bookCommands commands.BookCommands, bookQueries queries.BookQueries) *BookHandler {
	return &BookHandler{
		bookCommands: bookCommands,
		bookQueries:  bookQueries,
	}
}

// @Summary List books
// @Description Search the catalog by title, author, or ISBN
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.PageResponse[resdto.BookResponse]
// @Failure 401 {object} map[string]string
// @Router /books [get]
func (h *BookHandler) List(c *gin.Context) {
	page, limit := parsePaging(c)

	result, err := h.bookQueries.List(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.NewPage(result, resdto.NewBookResponse))
}

// @Summary Get book
// @Description Get a single catalog entry
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} resdto.BookResponse
// @Failure 404 {object} map[string]string
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.bookQueries.GetByID(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, queries.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Book not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.NewBookResponse(view))
}

// @Summary Create book
// @Description Register a new catalog entry
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.CreateBookRequest true "Create book request"
// @Success 201 {object} resdto.BookResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req reqdto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.bookCommands.Create(c.Request.Context(), actor, commands.CreateBookInput{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		case errors.Is(err, commands.ErrDuplicateISBN):
			c.JSON(http.StatusConflict, gin.H{"error": "ISBN already registered"})
		case errors.Is(err, commands.ErrBookValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book data"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.NewBookResponse(view))
}

// @Summary Update book metadata
// @Description Update title and/or author
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body reqdto.UpdateBookRequest true "Update request"
// @Success 200 {object} resdto.BookResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /books/{id} [patch]
func (h *BookHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req reqdto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.bookCommands.UpdateMetadata(c.Request.Context(), actor, bookID, commands.UpdateBookInput{
		Title:  req.Title,
		Author: req.Author,
	})
	if err != nil {
		h.writeBookError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.NewBookResponse(view))
}

// @Summary Adjust copy counts
// @Description Resize the holding while preserving copies out on loan
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body reqdto.AdjustCopiesRequest true "Adjust request"
// @Success 200 {object} resdto.BookResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /books/{id}/copies [patch]
func (h *BookHandler) AdjustCopies(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req reqdto.AdjustCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.bookCommands.AdjustCopies(c.Request.Context(), actor, bookID, req.TotalCopies)
	if err != nil {
		h.writeBookError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.NewBookResponse(view))
}

// @Summary Archive book
// @Description Remove the book from circulation (soft)
// @Tags books
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /books/{id} [delete]
func (h *BookHandler) Archive(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookCommands.Archive(c.Request.Context(), actor, bookID); err != nil {
		h.writeBookError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BookHandler) writeBookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
	case errors.Is(err, commands.ErrBookAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case errors.Is(err, commands.ErrBookArchived):
		c.JSON(http.StatusConflict, gin.H{"error": "Book is archived"})
	case errors.Is(err, commands.ErrCopiesBelowBorrowed):
		c.JSON(http.StatusConflict, gin.H{"error": "Total copies cannot drop below borrowed count"})
	case errors.Is(err, commands.ErrBookValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book data"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " parameter",
		})
		return uuid.Nil, false
	}
	return id, true
}
