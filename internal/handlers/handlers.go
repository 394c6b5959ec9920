package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/auth"
	"github.com/gatherhub/events-service/internal/config"
	"github.com/gatherhub/events-service/internal/repository"
	"github.com/gatherhub/events-service/internal/service"
)

// Handlers holds all HTTP handlers for the events service.
type Handlers struct {
	eventService  *service.EventService
	reviewService *service.ReviewService
	statsService  *service.StatsService
	tokens        *auth.TokenService
	config        *config.Config
	logger        *zap.Logger
	readiness     ReadinessChecks
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	eventService *service.EventService,
	reviewService *service.ReviewService,
	statsService *service.StatsService,
	tokens *auth.TokenService,
	cfg *config.Config,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		eventService:  eventService,
		reviewService: reviewService,
		statsService:  statsService,
		tokens:        tokens,
		config:        cfg,
		logger:        logger.Named("handlers"),
	}
}

func (h *Handlers) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error:   "Resource not found",
		})
	case errors.Is(err, repository.ErrDuplicateReview):
		c.JSON(http.StatusConflict, ErrorResponse{
			Success: false,
			Error:   "You have already reviewed this event",
		})
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidClaims):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   "Not authenticated",
		})
	default:
		h.logger.Error("handler error",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}
}

// Response types

// DataResponse wraps a payload. Data is often a pre-serialized cache payload,
// which json.RawMessage re-emits verbatim.
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
