package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/config"
	"github.com/gatherhub/events-service/internal/handlers"
	"github.com/gatherhub/events-service/internal/models"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-ID"

// Server represents the HTTP server.
type Server struct {
	srv     *http.Server
	router  *gin.Engine
	handler *handlers.Handlers
	config  *config.Config
	logger  *zap.Logger
}

// New creates a new server instance.
func New(h *handlers.Handlers, cfg *config.Config, logger *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	s := &Server{
		router:  router,
		handler: h,
		config:  cfg,
		logger:  logger.Named("server"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		s.logger.Info("request completed",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
			zap.String("request_id", c.GetString(HeaderRequestID)),
		)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderRequestID)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) setupRoutes() {
	// Health check endpoints (no auth required)
	s.router.GET("/health", s.handler.Health)
	s.router.GET("/ready", s.handler.Ready)

	v1 := s.router.Group("/api/v1")
	{
		// Public reads
		v1.GET("/events", s.handler.ListEvents)
		v1.GET("/events/:id", s.handler.GetEvent)
		v1.GET("/events/:id/reviews", s.handler.ListReviews)
		v1.GET("/stats/leaderboard", s.handler.Leaderboard)
		v1.GET("/stats/summary", s.handler.Summary)
		v1.GET("/stats/trending", s.handler.Trending)
		v1.GET("/stats/dashboard", s.handler.Dashboard)

		// Protected routes
		protected := v1.Group("")
		protected.Use(s.handler.AuthMiddleware())
		{
			protected.POST("/events/:id/reviews", s.handler.AddReview)
			protected.GET("/recommendations", s.handler.Recommendations)

			organizer := protected.Group("")
			organizer.Use(s.handler.RequireRole(models.RoleOrganizer, models.RoleAdmin))
			{
				organizer.POST("/events", s.handler.CreateEvent)
				organizer.PUT("/events/:id", s.handler.UpdateEvent)
				organizer.DELETE("/events/:id", s.handler.DeleteEvent)
			}

			admin := protected.Group("")
			admin.Use(s.handler.RequireRole(models.RoleAdmin))
			{
				admin.PATCH("/events/:id/status", s.handler.ModerateEvent)
			}
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.srv.Shutdown(ctx)
}
