package handler

import (
	"net/http"
	"strconv"

	"handyhub/internal/service"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// RegisterRoutes binds to the admin group; the caller applies the role check
func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats", h.GetStatistics)
	router.GET("/revenue", h.GetRevenue)
}

// @Summary      Get Dashboard Statistics
// @Description  User, worker, booking and service counts with this month's revenue and the top services
// @Tags         admin
// @Produce      json
// @Success      200 {object} response.Response{data=model.DashboardStats}
// @Failure      401 {object} response.Response
// @Failure      403 {object} response.Response
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", stats))
}

// @Summary      Get Monthly Revenue
// @Description  Revenue from completed bookings per month, oldest first, months without bookings included as zero
// @Tags         admin
// @Produce      json
// @Param        months query int false "Number of months including the current one (default 6, max 24)"
// @Success      200 {object} response.Response{data=[]model.RevenuePoint}
// @Failure      400 {object} response.Response
// @Security     BearerAuth
// @Router       /admin/revenue [get]
func (h *StatisticsHandler) GetRevenue(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Validation failed", map[string]string{"months": "must be a number"}))
			return
		}
		months = n
	}

	points, err := h.statisticsService.Revenue(c.Request.Context(), months)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", points))
}
