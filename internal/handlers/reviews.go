package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListReviews handles GET /api/v1/events/:id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	eventID := c.Param("id")

	payload, err := h.reviewService.ListReviews(c.Request.Context(), eventID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// AddReviewRequest is the body of POST /api/v1/events/:id/reviews.
type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// AddReview handles POST /api/v1/events/:id/reviews
func (h *Handlers) AddReview(c *gin.Context) {
	eventID := c.Param("id")

	var req AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Rating must be between 1 and 5",
		})
		return
	}

	claims := claimsFrom(c)
	h.logger.Info("AddReview called",
		zap.String("event_id", eventID), zap.String("user_id", claims.UserID))

	review, err := h.reviewService.AddReview(c.Request.Context(), claims.UserID, eventID, req.Rating, req.Comment)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, DataResponse{
		Success: true,
		Data:    review,
	})
}
