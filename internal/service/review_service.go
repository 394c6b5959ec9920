package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/cache"
	"github.com/gatherhub/events-service/internal/models"
	"github.com/gatherhub/events-service/internal/repository"
)

// ReviewService manages event reviews and keeps the denormalized average
// rating on the event in step with them.
type ReviewService struct {
	reviews repository.ReviewStore
	events  repository.EventStore
	users   repository.UserStore
	cache   cache.Store
	logger  *zap.Logger
}

func NewReviewService(
	reviews repository.ReviewStore,
	events repository.EventStore,
	users repository.UserStore,
	cacheStore cache.Store,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		events:  events,
		users:   users,
		cache:   cacheStore,
		logger:  logger.Named("review-service"),
	}
}

// ReviewListPayload is the stable response shape of the review list read.
type ReviewListPayload struct {
	Reviews []*models.Review `json:"reviews"`
}

// ListReviews returns an event's reviews, newest first, with reviewer names
// joined.
func (s *ReviewService) ListReviews(ctx context.Context, eventID string) (json.RawMessage, error) {
	return cacheAside(ctx, s.cache, cache.ReviewsKey(eventID), cache.TTLReviews, func() (interface{}, error) {
		reviews, err := s.reviews.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if err := s.attachUserNames(ctx, reviews); err != nil {
			return nil, err
		}
		return ReviewListPayload{Reviews: reviews}, nil
	})
}

func (s *ReviewService) attachUserNames(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, review := range reviews {
		if review.UserID != "" && !seen[review.UserID] {
			seen[review.UserID] = true
			ids = append(ids, review.UserID)
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, review := range reviews {
		review.UserName = names[review.UserID]
	}
	return nil
}

// AddReview records a user's review of an event, recomputes the event's
// average rating from all of its reviews, and invalidates the review cache.
//
// The unique (user, event) index is the final arbiter for duplicates; the
// lookup beforehand just avoids burning an insert on the common case. If the
// rating recomputation fails after the insert, the review stays and the error
// surfaces; the next successful review heals the average.
func (s *ReviewService) AddReview(ctx context.Context, userID, eventID string, rating int, comment string) (*models.Review, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	_, err := s.reviews.FindByUserAndEvent(ctx, userID, eventID)
	if err == nil {
		return nil, repository.ErrDuplicateReview
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	avg, err := s.reviews.AverageRating(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.events.SetAverageRating(ctx, eventID, avg); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.ReviewsKey(eventID))

	// Name join is best effort; the review itself is already committed.
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		review.UserName = user.Name
	}

	s.logger.Info("review added",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Float64("average_rating", avg))
	return review, nil
}
