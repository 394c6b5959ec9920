package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Leaderboard handles GET /api/v1/stats/leaderboard
func (h *Handlers) Leaderboard(c *gin.Context) {
	payload, err := h.statsService.Leaderboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// Summary handles GET /api/v1/stats/summary
func (h *Handlers) Summary(c *gin.Context) {
	payload, err := h.statsService.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// Trending handles GET /api/v1/stats/trending
func (h *Handlers) Trending(c *gin.Context) {
	payload, err := h.statsService.Trending(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// Dashboard handles GET /api/v1/stats/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	payload, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// Recommendations handles GET /api/v1/recommendations
func (h *Handlers) Recommendations(c *gin.Context) {
	claims := claimsFrom(c)

	payload, err := h.statsService.Recommendations(c.Request.Context(), claims.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}
