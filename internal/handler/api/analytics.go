package api

import (
	"net/http"
	"strconv"

	resdto "library-api/internal/handler/dto/response"
	"library-api/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsQueries queries.AnalyticsQueries
}

func NewAnalyticsHandler(analyticsQueries queries.AnalyticsQueries) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsQueries: analyticsQueries,
	}
}

// @Summary Dashboard
// @Description Aggregate lending statistics for staff
// @Tags analytics
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.DashboardResponse
// @Failure 403 {object} map[string]string
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	view, err := h.analyticsQueries.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.NewDashboardResponse(view))
}

// @Summary Recent activity
// @Description Latest lending events, newest first
// @Tags analytics
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of events"
// @Success 200 {object} []resdto.LendingEventResponse
// @Failure 403 {object} map[string]string
// @Router /analytics/activity [get]
func (h *AnalyticsHandler) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	events, err := h.analyticsQueries.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	result := make([]*resdto.LendingEventResponse, len(events))
	for i, ev := range events {
		result[i] = resdto.NewLendingEventResponse(ev)
	}
	c.JSON(http.StatusOK, result)
}
