package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/cache"
	"github.com/gatherhub/events-service/internal/models"
	"github.com/gatherhub/events-service/internal/repository"
)

// EventService provides the event read paths and mutations. Reads are
// cache-aside; every mutation deletes exactly the keys it can stale.
type EventService struct {
	events        repository.EventStore
	registrations repository.RegistrationStore
	users         repository.UserStore
	cache         cache.Store
	logger        *zap.Logger
}

func NewEventService(
	events repository.EventStore,
	registrations repository.RegistrationStore,
	users repository.UserStore,
	cacheStore cache.Store,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		users:         users,
		cache:         cacheStore,
		logger:        logger.Named("event-service"),
	}
}

// EventListPayload is the stable response shape of the list read.
type EventListPayload struct {
	Events []*models.Event `json:"events"`
}

// EventDetailPayload is the stable response shape of the detail read.
type EventDetailPayload struct {
	Event         *models.Event `json:"event"`
	Registrations int64         `json:"registrations"`
}

// CreateEventRequest carries the fields an organizer supplies for a new event.
type CreateEventRequest struct {
	Title       string
	Description string
	Category    string
	Venue       string
	Date        time.Time
	PosterURL   string
}

// ListEvents returns the event list, sorted by date ascending with organizer
// names joined. Only the completely unfiltered query shape is served from the
// shared list cache; filtered variants always recompute and never populate it.
func (s *EventService) ListEvents(ctx context.Context, filter repository.EventFilter) (json.RawMessage, error) {
	if !filter.Cacheable() {
		events, err := s.listWithOrganizers(ctx, filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(EventListPayload{Events: events})
	}

	return cacheAside(ctx, s.cache, cache.KeyEventList, cache.TTLEventList, func() (interface{}, error) {
		events, err := s.listWithOrganizers(ctx, filter)
		if err != nil {
			return nil, err
		}
		return EventListPayload{Events: events}, nil
	})
}

func (s *EventService) listWithOrganizers(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachOrganizerNames(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventService) attachOrganizerNames(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, event := range events {
		if event.OrganizerID != "" && !seen[event.OrganizerID] {
			seen[event.OrganizerID] = true
			ids = append(ids, event.OrganizerID)
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, event := range events {
		event.OrganizerName = names[event.OrganizerID]
	}
	return nil
}

// GetEvent returns one event with its organizer name and the count of
// non-cancelled registrations. A missing id fails before any cache work.
func (s *EventService) GetEvent(ctx context.Context, id string) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.EventKey(id), cache.TTLEventDetail, func() (interface{}, error) {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.attachOrganizerNames(ctx, []*models.Event{event}); err != nil {
			return nil, err
		}

		count, err := s.registrations.CountForEvent(ctx, id)
		if err != nil {
			return nil, err
		}

		return EventDetailPayload{Event: event, Registrations: count}, nil
	})
}

// CreateEvent stores a new pending event and invalidates the list cache.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req *CreateEventRequest) (*models.Event, error) {
	now := time.Now().UTC()
	event := &models.Event{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Venue:         req.Venue,
		Date:          req.Date,
		Status:        models.EventStatusPending,
		OrganizerID:   organizerID,
		PosterURL:     req.PosterURL,
		AverageRating: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	// Invalidation runs strictly after the store write commits.
	s.cache.Delete(ctx, cache.KeyEventList)

	s.logger.Info("event created",
		zap.String("event_id", event.ID), zap.String("organizer_id", organizerID))
	return event, nil
}

// UpdateEvent applies an organizer-scoped update and invalidates the list and
// detail caches.
func (s *EventService) UpdateEvent(ctx context.Context, id, organizerID string, update *repository.EventUpdate) (*models.Event, error) {
	event, err := s.events.Update(ctx, id, organizerID, update)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.KeyEventList, cache.EventKey(id))
	return event, nil
}

// DeleteEvent removes an organizer's event and invalidates the list and
// detail caches.
func (s *EventService) DeleteEvent(ctx context.Context, id, organizerID string) error {
	if err := s.events.Delete(ctx, id, organizerID); err != nil {
		return err
	}

	s.cache.Delete(ctx, cache.KeyEventList, cache.EventKey(id))

	s.logger.Info("event deleted", zap.String("event_id", id))
	return nil
}

// ModerateEvent moves an event through the approval workflow. It is an event
// update, so it invalidates the same keys.
func (s *EventService) ModerateEvent(ctx context.Context, id string, status models.EventStatus) (*models.Event, error) {
	event, err := s.events.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.KeyEventList, cache.EventKey(id))

	s.logger.Info("event moderated",
		zap.String("event_id", id), zap.String("status", string(status)))
	return event, nil
}
