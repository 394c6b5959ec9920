package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/auth"
	"github.com/gatherhub/events-service/internal/cache"
	"github.com/gatherhub/events-service/internal/config"
	"github.com/gatherhub/events-service/internal/models"
	"github.com/gatherhub/events-service/internal/repository"
	"github.com/gatherhub/events-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	events  *repository.MemoryEventStore
	reviews *repository.MemoryReviewStore
	users   *repository.MemoryUserStore
	tokens  *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	events := repository.NewMemoryEventStore()
	reviews := repository.NewMemoryReviewStore()
	registrations := repository.NewMemoryRegistrationStore()
	users := repository.NewMemoryUserStore()
	cacheStore := cache.NewMemoryStore()
	logger := zap.NewNop()

	cfg := &config.Config{
		ServiceName:    "events-service",
		ServiceVersion: "test",
		JWT:            config.JWTConfig{Secret: "test-secret", Issuer: "test"},
	}

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	h := NewHandlers(
		service.NewEventService(events, registrations, users, cacheStore, logger),
		service.NewReviewService(reviews, events, users, cacheStore, logger),
		service.NewStatsService(events, registrations, users, cacheStore, logger),
		tokens,
		cfg,
		logger,
	)

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	v1 := router.Group("/api/v1")
	v1.GET("/events", h.ListEvents)
	v1.GET("/events/:id", h.GetEvent)
	v1.GET("/events/:id/reviews", h.ListReviews)
	v1.GET("/stats/summary", h.Summary)

	protected := v1.Group("")
	protected.Use(h.AuthMiddleware())
	protected.POST("/events/:id/reviews", h.AddReview)
	protected.GET("/recommendations", h.Recommendations)

	organizer := protected.Group("")
	organizer.Use(h.RequireRole(models.RoleOrganizer, models.RoleAdmin))
	organizer.POST("/events", h.CreateEvent)
	organizer.PUT("/events/:id", h.UpdateEvent)
	organizer.DELETE("/events/:id", h.DeleteEvent)

	admin := protected.Group("")
	admin.Use(h.RequireRole(models.RoleAdmin))
	admin.PATCH("/events/:id/status", h.ModerateEvent)

	return &testEnv{
		router:  router,
		events:  events,
		reviews: reviews,
		users:   users,
		tokens:  tokens,
	}
}

func (e *testEnv) token(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	token, err := e.tokens.IssueToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedEvent(t *testing.T, id, organizerID string) {
	t.Helper()
	err := e.events.Create(context.Background(), &models.Event{
		ID:          id,
		Title:       "Jazz Night",
		Category:    "music",
		Status:      models.EventStatusApproved,
		OrganizerID: organizerID,
		Date:        time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if body["service"] != "events-service" {
		t.Errorf("service field = %v", body["service"])
	}
}

func TestListEventsResponseShape(t *testing.T) {
	env := newTestEnv(t)
	env.users.Add(models.User{ID: "o1", Name: "Ada", Role: models.RoleOrganizer})
	env.seedEvent(t, "e1", "o1")

	w := env.do(t, http.MethodGet, "/api/v1/events", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatal("expected success=true")
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", body["data"])
	}
	events, ok := data["events"].([]interface{})
	if !ok || len(events) != 1 {
		t.Fatalf("expected one event, got %v", data["events"])
	}
}

func TestGetEventNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/events/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	body := decodeBody(t, w)
	if body["success"] != false {
		t.Error("expected success=false")
	}
}

func TestCreateEventRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]interface{}{
		"title":    "Jazz Night",
		"category": "music",
		"date":     "2026-09-10T19:00:00Z",
	}

	t.Run("no token", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events", "", payload)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events", "not-a-jwt", payload)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		token := env.token(t, "u1", models.RoleCustomer)
		w := env.do(t, http.MethodPost, "/api/v1/events", token, payload)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
	})

	t.Run("organizer may create", func(t *testing.T) {
		token := env.token(t, "o1", models.RoleOrganizer)
		w := env.do(t, http.MethodPost, "/api/v1/events", token, payload)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
		}
	})
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "o1", models.RoleOrganizer)

	w := env.do(t, http.MethodPost, "/api/v1/events", token, map[string]interface{}{
		"description": "missing title, category and date",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpdateEventScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "e1", "o1")

	body := map[string]interface{}{"title": "Renamed"}

	other := env.token(t, "o2", models.RoleOrganizer)
	w := env.do(t, http.MethodPut, "/api/v1/events/e1", other, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status for non-owner = %d, want 404", w.Code)
	}

	owner := env.token(t, "o1", models.RoleOrganizer)
	w = env.do(t, http.MethodPut, "/api/v1/events/e1", owner, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status for owner = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestModerateEventAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "e1", "o1")

	body := map[string]interface{}{"status": "approved"}

	organizer := env.token(t, "o1", models.RoleOrganizer)
	w := env.do(t, http.MethodPatch, "/api/v1/events/e1/status", organizer, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status for organizer = %d, want 403", w.Code)
	}

	admin := env.token(t, "a1", models.RoleAdmin)
	w = env.do(t, http.MethodPatch, "/api/v1/events/e1/status", admin, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status for admin = %d, want 200: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPatch, "/api/v1/events/e1/status", admin, map[string]interface{}{"status": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status for invalid value = %d, want 400", w.Code)
	}
}

func TestAddReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "e1", "o1")
	token := env.token(t, "u1", models.RoleCustomer)

	t.Run("rating out of range", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/e1/reviews", token, map[string]interface{}{"rating": 6})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("created", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/e1/reviews", token, map[string]interface{}{"rating": 5, "comment": "great"})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
		}
	})

	t.Run("second review conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/e1/reviews", token, map[string]interface{}{"rating": 4})
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/nope/reviews", token, map[string]interface{}{"rating": 5})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestRecommendationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/recommendations", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	token := env.token(t, "u1", models.RoleCustomer)
	w = env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, "e1", "o1")

	w := env.do(t, http.MethodGet, "/api/v1/stats/summary", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	totals, ok := data["totals"].(map[string]interface{})
	if !ok {
		t.Fatalf("totals missing: %v", data)
	}
	for _, field := range []string{"events", "approvedEvents", "upcomingEvents", "registrations", "customers", "organizers"} {
		if _, ok := totals[field]; !ok {
			t.Errorf("totals missing field %q", field)
		}
	}
}

func TestReadyWithoutProbes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ready", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["ready"] != true {
		t.Error("expected ready=true")
	}
	if body["cache"] != "disabled" {
		t.Errorf("cache = %v, want disabled", body["cache"])
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.tokens.IssueToken("u1", models.RoleCustomer, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
