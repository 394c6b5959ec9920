package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gatherhub/events-service/internal/models"
)

// In-memory store implementations with the same query semantics as the Mongo
// ones. They back the test suite and local development without a database.

// MemoryEventStore is an in-memory EventStore.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]models.Event)}
}

func (s *MemoryEventStore) GetByID(_ context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (s *MemoryEventStore) ByIDs(_ context.Context, ids []string) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []*models.Event{}
	for _, id := range ids {
		if event, ok := s.events[id]; ok {
			e := event
			events = append(events, &e)
		}
	}
	return events, nil
}

func (f EventFilter) matches(e models.Event) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Query)) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if e.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Organizer != "" && e.OrganizerID != f.Organizer {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	return true
}

func (s *MemoryEventStore) List(_ context.Context, filter EventFilter) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*models.Event{}
	for _, event := range s.events {
		if filter.matches(event) {
			e := event
			matched = append(matched, &e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		switch filter.Sort {
		case SortByRatingDesc:
			return matched[i].AverageRating > matched[j].AverageRating
		case SortByCreatedDesc:
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		default:
			return matched[i].Date.Before(matched[j].Date)
		}
	})

	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *MemoryEventStore) Count(_ context.Context, filter EventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, event := range s.events {
		if filter.matches(event) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryEventStore) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

func (s *MemoryEventStore) Update(_ context.Context, id, organizerID string, update *EventUpdate) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.OrganizerID != organizerID {
		return nil, ErrNotFound
	}

	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.Category != nil {
		event.Category = *update.Category
	}
	if update.Venue != nil {
		event.Venue = *update.Venue
	}
	if update.Date != nil {
		event.Date = *update.Date
	}
	if update.PosterURL != nil {
		event.PosterURL = *update.PosterURL
	}
	event.UpdatedAt = time.Now().UTC()

	s.events[id] = event
	return &event, nil
}

func (s *MemoryEventStore) Delete(_ context.Context, id, organizerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.OrganizerID != organizerID {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryEventStore) UpdateStatus(_ context.Context, id string, status models.EventStatus) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	event.Status = status
	event.UpdatedAt = time.Now().UTC()
	s.events[id] = event
	return &event, nil
}

func (s *MemoryEventStore) SetAverageRating(_ context.Context, id string, avg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	event.AverageRating = avg
	s.events[id] = event
	return nil
}

func (s *MemoryEventStore) CountByCategory(_ context.Context) ([]GroupCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := map[string]int64{}
	for _, event := range s.events {
		if event.Status == models.EventStatusApproved {
			byCategory[event.Category]++
		}
	}
	return sortedCounts(byCategory, byCountDesc), nil
}

func (s *MemoryEventStore) CountUpcomingByMonth(_ context.Context, from time.Time, limit int64) ([]GroupCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := map[string]int64{}
	for _, event := range s.events {
		if event.Status == models.EventStatusApproved && !event.Date.Before(from) {
			byMonth[event.Date.Format("2006-01")]++
		}
	}

	counts := sortedCounts(byMonth, byKeyAsc)
	if limit > 0 && int64(len(counts)) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

func (s *MemoryEventStore) DistinctCategories(_ context.Context, eventIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	categories := []string{}
	for _, id := range eventIDs {
		event, ok := s.events[id]
		if !ok || event.Category == "" || seen[event.Category] {
			continue
		}
		seen[event.Category] = true
		categories = append(categories, event.Category)
	}
	return categories, nil
}

// MemoryReviewStore is an in-memory ReviewStore.
type MemoryReviewStore struct {
	mu      sync.Mutex
	reviews []models.Review
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{}
}

func (s *MemoryReviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reviews {
		if r.UserID == review.UserID && r.EventID == review.EventID {
			return ErrDuplicateReview
		}
	}
	s.reviews = append(s.reviews, *review)
	return nil
}

func (s *MemoryReviewStore) FindByUserAndEvent(_ context.Context, userID, eventID string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reviews {
		if r.UserID == userID && r.EventID == eventID {
			review := r
			return &review, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryReviewStore) ListByEvent(_ context.Context, eventID string) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews := []*models.Review{}
	for _, r := range s.reviews {
		if r.EventID == eventID {
			review := r
			reviews = append(reviews, &review)
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func (s *MemoryReviewStore) AverageRating(_ context.Context, eventID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum, n int
	for _, r := range s.reviews {
		if r.EventID == eventID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// MemoryRegistrationStore is an in-memory RegistrationStore.
type MemoryRegistrationStore struct {
	mu            sync.RWMutex
	registrations []models.Registration
}

func NewMemoryRegistrationStore() *MemoryRegistrationStore {
	return &MemoryRegistrationStore{}
}

// Add seeds a registration. Test and development use.
func (s *MemoryRegistrationStore) Add(reg models.Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations = append(s.registrations, reg)
}

func (s *MemoryRegistrationStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.registrations)), nil
}

func (s *MemoryRegistrationStore) CountForEvent(_ context.Context, eventID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status != models.RegistrationStatusCancelled {
			n++
		}
	}
	return n, nil
}

func (s *MemoryRegistrationStore) TopEvents(_ context.Context, limit int64) ([]GroupCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byEvent := map[string]int64{}
	for _, r := range s.registrations {
		if r.EventID != "" {
			byEvent[r.EventID]++
		}
	}

	counts := sortedCounts(byEvent, byCountDesc)
	if limit > 0 && int64(len(counts)) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

func (s *MemoryRegistrationStore) EventIDsForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	ids := []string{}
	for _, r := range s.registrations {
		if r.UserID == userID && r.EventID != "" && !seen[r.EventID] {
			seen[r.EventID] = true
			ids = append(ids, r.EventID)
		}
	}
	return ids, nil
}

// MemoryUserStore is an in-memory UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

// Add seeds a user. Test and development use.
func (s *MemoryUserStore) Add(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) NamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := map[string]string{}
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			names[id] = user.Name
		}
	}
	return names, nil
}

func (s *MemoryUserStore) Leaderboard(_ context.Context, limit int64) ([]*models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []*models.LeaderboardEntry{}
	for _, user := range s.users {
		if user.IsBlocked {
			continue
		}
		if user.Role != models.RoleCustomer && user.Role != models.RoleOrganizer {
			continue
		}
		entries = append(entries, &models.LeaderboardEntry{
			ID:     user.ID,
			Name:   user.Name,
			Points: user.Points,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	if limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryUserStore) CountActiveByRole(_ context.Context, role models.UserRole) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, user := range s.users {
		if user.Role == role && !user.IsBlocked {
			n++
		}
	}
	return n, nil
}

type countOrder int

const (
	byCountDesc countOrder = iota
	byKeyAsc
)

func sortedCounts(m map[string]int64, order countOrder) []GroupCount {
	counts := make([]GroupCount, 0, len(m))
	for key, count := range m {
		counts = append(counts, GroupCount{Key: key, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if order == byKeyAsc {
			return counts[i].Key < counts[j].Key
		}
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Key < counts[j].Key
	})
	return counts
}
