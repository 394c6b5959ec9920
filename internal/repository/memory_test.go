package repository

import (
	"context"
	"testing"
	"time"

	"github.com/gatherhub/events-service/internal/models"
)

func seedEvents(t *testing.T, store *MemoryEventStore, events ...models.Event) {
	t.Helper()
	for i := range events {
		if err := store.Create(context.Background(), &events[i]); err != nil {
			t.Fatalf("seed event %s: %v", events[i].ID, err)
		}
	}
}

func TestEventFilterMatching(t *testing.T) {
	store := NewMemoryEventStore()
	base := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	seedEvents(t, store,
		models.Event{ID: "e1", Title: "Jazz Night", Category: "music", Status: models.EventStatusApproved, OrganizerID: "o1", Date: base},
		models.Event{ID: "e2", Title: "Tech Meetup", Category: "tech", Status: models.EventStatusApproved, OrganizerID: "o2", Date: base.Add(24 * time.Hour)},
		models.Event{ID: "e3", Title: "Late Jazz Jam", Category: "music", Status: models.EventStatusPending, OrganizerID: "o1", Date: base.Add(48 * time.Hour)},
	)

	from := base.Add(12 * time.Hour)

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"no filter", EventFilter{}, []string{"e1", "e2", "e3"}},
		{"title substring is case-insensitive", EventFilter{Query: "jazz"}, []string{"e1", "e3"}},
		{"category", EventFilter{Category: "tech"}, []string{"e2"}},
		{"status", EventFilter{Status: models.EventStatusPending}, []string{"e3"}},
		{"organizer", EventFilter{Organizer: "o1"}, []string{"e1", "e3"}},
		{"categories set", EventFilter{Categories: []string{"music", "food"}}, []string{"e1", "e3"}},
		{"from bound excludes earlier dates", EventFilter{From: &from}, []string{"e2", "e3"}},
		{"combined", EventFilter{Category: "music", Status: models.EventStatusApproved}, []string{"e1"}},
		{"limit", EventFilter{Limit: 2}, []string{"e1", "e2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(events), len(tt.want))
			}
			for i, id := range tt.want {
				if events[i].ID != id {
					t.Errorf("events[%d] = %s, want %s", i, events[i].ID, id)
				}
			}
		})
	}
}

func TestEventFilterCacheable(t *testing.T) {
	from := time.Now()

	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty", EventFilter{}, true},
		{"query", EventFilter{Query: "jazz"}, false},
		{"category", EventFilter{Category: "music"}, false},
		{"status", EventFilter{Status: models.EventStatusApproved}, false},
		{"organizer", EventFilter{Organizer: "o1"}, false},
		{"categories", EventFilter{Categories: []string{"music"}}, false},
		{"from", EventFilter{From: &from}, false},
		{"sort", EventFilter{Sort: SortByRatingDesc}, false},
		{"limit", EventFilter{Limit: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Cacheable(); got != tt.want {
				t.Errorf("Cacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventSortOrders(t *testing.T) {
	store := NewMemoryEventStore()
	base := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	seedEvents(t, store,
		models.Event{ID: "e1", Title: "A", Date: base.Add(48 * time.Hour), AverageRating: 4.5, CreatedAt: base},
		models.Event{ID: "e2", Title: "B", Date: base, AverageRating: 2.0, CreatedAt: base.Add(time.Hour)},
		models.Event{ID: "e3", Title: "C", Date: base.Add(24 * time.Hour), AverageRating: 5.0, CreatedAt: base.Add(2 * time.Hour)},
	)

	tests := []struct {
		name string
		sort EventSort
		want []string
	}{
		{"date ascending", SortByDateAsc, []string{"e2", "e3", "e1"}},
		{"rating descending", SortByRatingDesc, []string{"e3", "e1", "e2"}},
		{"created descending", SortByCreatedDesc, []string{"e3", "e2", "e1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.List(context.Background(), EventFilter{Sort: tt.sort})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			for i, id := range tt.want {
				if events[i].ID != id {
					t.Errorf("events[%d] = %s, want %s", i, events[i].ID, id)
				}
			}
		})
	}
}

func TestUpdateScopedToOrganizer(t *testing.T) {
	store := NewMemoryEventStore()
	seedEvents(t, store, models.Event{ID: "e1", Title: "Jazz", OrganizerID: "o1"})

	title := "Blues"
	if _, err := store.Update(context.Background(), "e1", "o2", &EventUpdate{Title: &title}); err != ErrNotFound {
		t.Fatalf("Update by wrong organizer: got %v, want ErrNotFound", err)
	}

	event, err := store.Update(context.Background(), "e1", "o1", &EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if event.Title != "Blues" {
		t.Errorf("title = %q, want Blues", event.Title)
	}

	if err := store.Delete(context.Background(), "e1", "o2"); err != ErrNotFound {
		t.Fatalf("Delete by wrong organizer: got %v, want ErrNotFound", err)
	}
	if err := store.Delete(context.Background(), "e1", "o1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestReviewStoreDuplicate(t *testing.T) {
	store := NewMemoryReviewStore()
	ctx := context.Background()

	review := &models.Review{ID: "r1", EventID: "e1", UserID: "u1", Rating: 4}
	if err := store.Create(ctx, review); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &models.Review{ID: "r2", EventID: "e1", UserID: "u1", Rating: 5}
	if err := store.Create(ctx, dup); err != ErrDuplicateReview {
		t.Fatalf("duplicate Create: got %v, want ErrDuplicateReview", err)
	}

	// Same user, different event is fine.
	other := &models.Review{ID: "r3", EventID: "e2", UserID: "u1", Rating: 5}
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("Create for other event: %v", err)
	}
}

func TestReviewAverageRating(t *testing.T) {
	store := NewMemoryReviewStore()
	ctx := context.Background()

	avg, err := store.AverageRating(ctx, "e1")
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 0 {
		t.Errorf("average with no reviews = %v, want 0", avg)
	}

	for i, rating := range []int{4, 5, 3} {
		review := &models.Review{ID: string(rune('a' + i)), EventID: "e1", UserID: string(rune('u' + i)), Rating: rating}
		if err := store.Create(ctx, review); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	avg, err = store.AverageRating(ctx, "e1")
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 4.0 {
		t.Errorf("average = %v, want 4.0", avg)
	}
}

func TestRegistrationTopEvents(t *testing.T) {
	store := NewMemoryRegistrationStore()

	for eventID, n := range map[string]int{"e1": 3, "e2": 5, "e3": 1} {
		for i := 0; i < n; i++ {
			store.Add(models.Registration{EventID: eventID, UserID: "u", Status: models.RegistrationStatusRegistered})
		}
	}

	counts, err := store.TopEvents(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopEvents: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d rows, want 2", len(counts))
	}
	if counts[0].Key != "e2" || counts[0].Count != 5 {
		t.Errorf("counts[0] = %+v, want e2/5", counts[0])
	}
	if counts[1].Key != "e1" || counts[1].Count != 3 {
		t.Errorf("counts[1] = %+v, want e1/3", counts[1])
	}
}

func TestCountUpcomingByMonth(t *testing.T) {
	store := NewMemoryEventStore()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seedEvents(t, store,
		models.Event{ID: "e1", Status: models.EventStatusApproved, Date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		models.Event{ID: "e2", Status: models.EventStatusApproved, Date: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)},
		models.Event{ID: "e3", Status: models.EventStatusApproved, Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		models.Event{ID: "e4", Status: models.EventStatusApproved, Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		models.Event{ID: "e5", Status: models.EventStatusPending, Date: time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)},
	)

	counts, err := store.CountUpcomingByMonth(context.Background(), from, 6)
	if err != nil {
		t.Fatalf("CountUpcomingByMonth: %v", err)
	}

	want := []GroupCount{{Key: "2026-03", Count: 2}, {Key: "2026-05", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}
