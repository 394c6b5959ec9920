package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/models"
	"github.com/gatherhub/events-service/internal/repository"
	"github.com/gatherhub/events-service/internal/service"
)

// ListEvents handles GET /api/v1/events
func (h *Handlers) ListEvents(c *gin.Context) {
	filter := repository.EventFilter{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		Status:    models.EventStatus(c.Query("status")),
		Organizer: c.Query("organizer"),
	}

	payload, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// GetEvent handles GET /api/v1/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	eventID := c.Param("id")

	payload, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    payload,
	})
}

// CreateEventRequest is the body of POST /api/v1/events.
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Category    string    `json:"category" binding:"required"`
	Venue       string    `json:"venue"`
	Date        time.Time `json:"date" binding:"required"`
	PosterURL   string    `json:"posterUrl"`
}

// CreateEvent handles POST /api/v1/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	claims := claimsFrom(c)
	h.logger.Info("CreateEvent called",
		zap.String("organizer_id", claims.UserID), zap.String("title", req.Title))

	event, err := h.eventService.CreateEvent(c.Request.Context(), claims.UserID, &service.CreateEventRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Venue:       req.Venue,
		Date:        req.Date,
		PosterURL:   req.PosterURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, DataResponse{
		Success: true,
		Data:    event,
	})
}

// UpdateEventRequest is the body of PUT /api/v1/events/:id. Absent fields are
// left unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Venue       *string    `json:"venue"`
	Date        *time.Time `json:"date"`
	PosterURL   *string    `json:"posterUrl"`
}

// UpdateEvent handles PUT /api/v1/events/:id
func (h *Handlers) UpdateEvent(c *gin.Context) {
	eventID := c.Param("id")

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	claims := claimsFrom(c)
	event, err := h.eventService.UpdateEvent(c.Request.Context(), eventID, claims.UserID, &repository.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Venue:       req.Venue,
		Date:        req.Date,
		PosterURL:   req.PosterURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    event,
	})
}

// DeleteEvent handles DELETE /api/v1/events/:id
func (h *Handlers) DeleteEvent(c *gin.Context) {
	eventID := c.Param("id")
	claims := claimsFrom(c)

	if err := h.eventService.DeleteEvent(c.Request.Context(), eventID, claims.UserID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Event deleted successfully",
	})
}

// ModerateEventRequest is the body of PATCH /api/v1/events/:id/status.
type ModerateEventRequest struct {
	Status models.EventStatus `json:"status" binding:"required,oneof=pending approved rejected"`
}

// ModerateEvent handles PATCH /api/v1/events/:id/status
func (h *Handlers) ModerateEvent(c *gin.Context) {
	eventID := c.Param("id")

	var req ModerateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	event, err := h.eventService.ModerateEvent(c.Request.Context(), eventID, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    event,
	})
}
