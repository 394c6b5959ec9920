package repository

import (
	"context"
	"time"

	"github.com/gatherhub/events-service/internal/models"
)

// EventSort selects the sort order of an event query.
type EventSort int

const (
	SortByDateAsc EventSort = iota
	SortByRatingDesc
	SortByCreatedDesc
)

// EventFilter describes an event query: equality filters, a case-insensitive
// substring match on the title, an optional lower date bound, sort and limit.
type EventFilter struct {
	Query      string
	Category   string
	Status     models.EventStatus
	Organizer  string
	Categories []string
	From       *time.Time
	Sort       EventSort
	Limit      int64
}

// Cacheable reports whether this query shape may be served from the shared
// list cache. Only the completely unfiltered, default-sorted list qualifies;
// every other shape bypasses the cache entirely.
func (f EventFilter) Cacheable() bool {
	return f.Query == "" &&
		f.Category == "" &&
		f.Status == "" &&
		f.Organizer == "" &&
		len(f.Categories) == 0 &&
		f.From == nil &&
		f.Sort == SortByDateAsc &&
		f.Limit == 0
}

// EventUpdate carries the mutable event fields; nil means "leave unchanged".
type EventUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Venue       *string
	Date        *time.Time
	PosterURL   *string
}

// GroupCount is one row of a group-by aggregation.
type GroupCount struct {
	Key   string
	Count int64
}

// EventStore is the document-store boundary for events.
type EventStore interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ByIDs(ctx context.Context, ids []string) ([]*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)
	Count(ctx context.Context, filter EventFilter) (int64, error)
	Create(ctx context.Context, event *models.Event) error
	// Update and Delete are scoped to the owning organizer; a non-matching
	// (id, organizer) pair returns ErrNotFound.
	Update(ctx context.Context, id, organizerID string, update *EventUpdate) (*models.Event, error)
	Delete(ctx context.Context, id, organizerID string) error
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) (*models.Event, error)
	// SetAverageRating persists the denormalized rating projection.
	SetAverageRating(ctx context.Context, id string, avg float64) error
	// CountByCategory groups approved events by category, most frequent first.
	CountByCategory(ctx context.Context) ([]GroupCount, error)
	// CountUpcomingByMonth buckets approved events dated at or after from by
	// year-month ("2006-01"), ascending, capped at limit buckets.
	CountUpcomingByMonth(ctx context.Context, from time.Time, limit int64) ([]GroupCount, error)
	// DistinctCategories returns the category set of the given events.
	DistinctCategories(ctx context.Context, eventIDs []string) ([]string, error)
}

// ReviewStore is the document-store boundary for reviews.
type ReviewStore interface {
	// Create inserts a review; a (user, event) collision returns
	// ErrDuplicateReview.
	Create(ctx context.Context, review *models.Review) error
	FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.Review, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Review, error)
	// AverageRating computes the mean rating over all of the event's reviews,
	// 0 when the event has none.
	AverageRating(ctx context.Context, eventID string) (float64, error)
}

// RegistrationStore is the read-only boundary to registration data.
type RegistrationStore interface {
	Count(ctx context.Context) (int64, error)
	// CountForEvent counts an event's non-cancelled registrations.
	CountForEvent(ctx context.Context, eventID string) (int64, error)
	// TopEvents groups registrations by event and returns the most
	// registered events first. Row order is not guaranteed to survive the
	// event fetch that follows; callers must re-sort.
	TopEvents(ctx context.Context, limit int64) ([]GroupCount, error)
	EventIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// UserStore is the read-only boundary to user data.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// NamesByIDs resolves display names for the given user ids.
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	// Leaderboard returns the top non-blocked customers and organizers by
	// points, descending.
	Leaderboard(ctx context.Context, limit int64) ([]*models.LeaderboardEntry, error)
	CountActiveByRole(ctx context.Context, role models.UserRole) (int64, error)
}

// Ensure implementations satisfy the interfaces.
var (
	_ EventStore        = (*MongoEventStore)(nil)
	_ ReviewStore       = (*MongoReviewStore)(nil)
	_ RegistrationStore = (*MongoRegistrationStore)(nil)
	_ UserStore         = (*MongoUserStore)(nil)
	_ EventStore        = (*MemoryEventStore)(nil)
	_ ReviewStore       = (*MemoryReviewStore)(nil)
	_ RegistrationStore = (*MemoryRegistrationStore)(nil)
	_ UserStore         = (*MemoryUserStore)(nil)
)
