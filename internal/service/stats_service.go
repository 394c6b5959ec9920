package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gatherhub/events-service/internal/cache"
	"github.com/gatherhub/events-service/internal/models"
	"github.com/gatherhub/events-service/internal/repository"
)

const (
	trendingLimit       = 6
	leaderboardLimit    = 10
	recommendationLimit = 6
	dashboardMonths     = 6
)

// StatsService computes the platform-wide derived reads: leaderboard,
// summary totals, trending lists, the admin dashboard and per-user
// recommendations. Every read is cache-aside under its own key.
type StatsService struct {
	events        repository.EventStore
	registrations repository.RegistrationStore
	users         repository.UserStore
	cache         cache.Store
	logger        *zap.Logger

	// now is swapped out by tests that pin time-dependent reads.
	now func() time.Time
}

func NewStatsService(
	events repository.EventStore,
	registrations repository.RegistrationStore,
	users repository.UserStore,
	cacheStore cache.Store,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		events:        events,
		registrations: registrations,
		users:         users,
		cache:         cacheStore,
		logger:        logger.Named("stats-service"),
		now:           time.Now,
	}
}

// LeaderboardPayload is the stable response shape of the leaderboard read.
type LeaderboardPayload struct {
	Leaderboard []*models.LeaderboardEntry `json:"leaderboard"`
}

// SummaryTotals are the platform-wide counters on the summary read.
type SummaryTotals struct {
	Events         int64 `json:"events"`
	ApprovedEvents int64 `json:"approvedEvents"`
	UpcomingEvents int64 `json:"upcomingEvents"`
	Registrations  int64 `json:"registrations"`
	Customers      int64 `json:"customers"`
	Organizers     int64 `json:"organizers"`
}

// SummaryPayload is the stable response shape of the summary read.
type SummaryPayload struct {
	Totals SummaryTotals `json:"totals"`
}

// TrendingPayload is the stable response shape of the trending read.
type TrendingPayload struct {
	Popular  []*models.Event `json:"popular"`
	TopRated []*models.Event `json:"topRated"`
	Recent   []*models.Event `json:"recent"`
}

// CategoryCount is one row of the dashboard category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// MonthCount is one row of the dashboard upcoming-by-month histogram.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// DashboardPayload is the stable response shape of the dashboard read.
type DashboardPayload struct {
	Categories      []CategoryCount `json:"categories"`
	UpcomingByMonth []MonthCount    `json:"upcomingByMonth"`
}

// RecommendationsPayload is the stable response shape of the
// recommendations read.
type RecommendationsPayload struct {
	Events []*models.Event `json:"events"`
}

// Leaderboard returns the top customers and organizers by points.
func (s *StatsService) Leaderboard(ctx context.Context) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.KeyLeaderboard, cache.TTLLeaderboard, func() (interface{}, error) {
		entries, err := s.users.Leaderboard(ctx, leaderboardLimit)
		if err != nil {
			return nil, err
		}
		return LeaderboardPayload{Leaderboard: entries}, nil
	})
}

// Summary returns the platform-wide totals. The six counts run concurrently;
// any failure fails the read so a partial summary is never cached.
func (s *StatsService) Summary(ctx context.Context) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.KeySummary, cache.TTLSummary, func() (interface{}, error) {
		now := s.now().UTC()
		var totals SummaryTotals

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			totals.Events, err = s.events.Count(gctx, repository.EventFilter{})
			return
		})
		g.Go(func() (err error) {
			totals.ApprovedEvents, err = s.events.Count(gctx, repository.EventFilter{
				Status: models.EventStatusApproved,
			})
			return
		})
		g.Go(func() (err error) {
			totals.UpcomingEvents, err = s.events.Count(gctx, repository.EventFilter{
				Status: models.EventStatusApproved,
				From:   &now,
			})
			return
		})
		g.Go(func() (err error) {
			totals.Registrations, err = s.registrations.Count(gctx)
			return
		})
		g.Go(func() (err error) {
			totals.Customers, err = s.users.CountActiveByRole(gctx, models.RoleCustomer)
			return
		})
		g.Go(func() (err error) {
			totals.Organizers, err = s.users.CountActiveByRole(gctx, models.RoleOrganizer)
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return SummaryPayload{Totals: totals}, nil
	})
}

// Trending returns three event lists: the most registered events, the best
// rated, and the most recently created.
func (s *StatsService) Trending(ctx context.Context) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.KeyTrending, cache.TTLTrending, func() (interface{}, error) {
		popular, err := s.popularEvents(ctx)
		if err != nil {
			return nil, err
		}

		topRated, err := s.events.List(ctx, repository.EventFilter{
			Status: models.EventStatusApproved,
			Sort:   repository.SortByRatingDesc,
			Limit:  trendingLimit,
		})
		if err != nil {
			return nil, err
		}

		recent, err := s.events.List(ctx, repository.EventFilter{
			Status: models.EventStatusApproved,
			Sort:   repository.SortByCreatedDesc,
			Limit:  trendingLimit,
		})
		if err != nil {
			return nil, err
		}

		return TrendingPayload{Popular: popular, TopRated: topRated, Recent: recent}, nil
	})
}

// popularEvents joins the registration group counts back onto their events.
// The fetch by ids returns documents in store order, so the counts are
// reattached by id and the result re-sorted explicitly.
func (s *StatsService) popularEvents(ctx context.Context) ([]*models.Event, error) {
	counts, err := s.registrations.TopEvents(ctx, trendingLimit)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return []*models.Event{}, nil
	}

	ids := make([]string, 0, len(counts))
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		ids = append(ids, c.Key)
		byID[c.Key] = c.Count
	}

	events, err := s.events.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		event.Registrations = byID[event.ID]
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Registrations > events[j].Registrations
	})
	return events, nil
}

// Dashboard returns the admin dashboard aggregates: the category
// distribution of approved events and the upcoming approved events bucketed
// by month.
func (s *StatsService) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.KeyDashboard, cache.TTLDashboard, func() (interface{}, error) {
		categories, err := s.events.CountByCategory(ctx)
		if err != nil {
			return nil, err
		}

		months, err := s.events.CountUpcomingByMonth(ctx, s.now().UTC(), dashboardMonths)
		if err != nil {
			return nil, err
		}

		payload := DashboardPayload{
			Categories:      make([]CategoryCount, 0, len(categories)),
			UpcomingByMonth: make([]MonthCount, 0, len(months)),
		}
		for _, c := range categories {
			payload.Categories = append(payload.Categories, CategoryCount{Category: c.Key, Count: c.Count})
		}
		for _, m := range months {
			payload.UpcomingByMonth = append(payload.UpcomingByMonth, MonthCount{Month: m.Key, Count: m.Count})
		}
		return payload, nil
	})
}

// Recommendations returns upcoming approved events in the categories the
// user has registered for before, or across all categories for users with no
// registration history.
func (s *StatsService) Recommendations(ctx context.Context, userID string) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.RecommendationsKey(userID), cache.TTLRecommendations, func() (interface{}, error) {
		eventIDs, err := s.registrations.EventIDsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		var categories []string
		if len(eventIDs) > 0 {
			categories, err = s.events.DistinctCategories(ctx, eventIDs)
			if err != nil {
				return nil, err
			}
		}

		now := s.now().UTC()
		events, err := s.events.List(ctx, repository.EventFilter{
			Status:     models.EventStatusApproved,
			Categories: categories,
			From:       &now,
			Limit:      recommendationLimit,
		})
		if err != nil {
			return nil, err
		}

		return RecommendationsPayload{Events: events}, nil
	})
}
