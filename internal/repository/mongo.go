package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/config"
	"github.com/gatherhub/events-service/internal/models"
)

// Collection names.
const (
	collEvents        = "events"
	collReviews       = "reviews"
	collRegistrations = "registrations"
	collUsers         = "users"
)

// Connect opens a MongoDB client and verifies the connection.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on. The unique compound
// index on (user, event) is the final arbiter of the one-review-per-user
// invariant under concurrent submissions.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collReviews).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "event", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(collRegistrations).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "event", Value: 1}},
	})
	return err
}

// MongoEventStore implements EventStore on a MongoDB collection.
type MongoEventStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoEventStore(db *mongo.Database, logger *zap.Logger) *MongoEventStore {
	return &MongoEventStore{
		coll:   db.Collection(collEvents),
		logger: logger.Named("mongo-event-store"),
	}
}

func (s *MongoEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to fetch event", zap.String("event_id", id), zap.Error(err))
		return nil, err
	}
	return &event, nil
}

func (s *MongoEventStore) ByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	if len(ids) == 0 {
		return []*models.Event{}, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	events := []*models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (f EventFilter) mongoFilter() bson.M {
	filter := bson.M{}
	if f.Query != "" {
		filter["title"] = bson.M{"$regex": primitive.Regex{Pattern: f.Query, Options: "i"}}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if len(f.Categories) > 0 {
		filter["category"] = bson.M{"$in": f.Categories}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Organizer != "" {
		filter["organizerId"] = f.Organizer
	}
	if f.From != nil {
		filter["date"] = bson.M{"$gte": *f.From}
	}
	return filter
}

func (f EventFilter) mongoSort() bson.D {
	switch f.Sort {
	case SortByRatingDesc:
		return bson.D{{Key: "averageRating", Value: -1}}
	case SortByCreatedDesc:
		return bson.D{{Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "date", Value: 1}}
	}
}

func (s *MongoEventStore) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	opts := options.Find().SetSort(filter.mongoSort())
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.coll.Find(ctx, filter.mongoFilter(), opts)
	if err != nil {
		s.logger.Error("failed to list events", zap.Error(err))
		return nil, err
	}

	events := []*models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *MongoEventStore) Count(ctx context.Context, filter EventFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, filter.mongoFilter())
}

func (s *MongoEventStore) Create(ctx context.Context, event *models.Event) error {
	_, err := s.coll.InsertOne(ctx, event)
	if err != nil {
		s.logger.Error("failed to create event", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	s.logger.Info("event created", zap.String("event_id", event.ID))
	return nil
}

func (u *EventUpdate) setDoc(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Venue != nil {
		set["venue"] = *u.Venue
	}
	if u.Date != nil {
		set["date"] = *u.Date
	}
	if u.PosterURL != nil {
		set["posterUrl"] = *u.PosterURL
	}
	return set
}

func (s *MongoEventStore) Update(ctx context.Context, id, organizerID string, update *EventUpdate) (*models.Event, error) {
	filter := bson.M{"_id": id, "organizerId": organizerID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event models.Event
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": update.setDoc(time.Now().UTC())}, opts).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to update event", zap.String("event_id", id), zap.Error(err))
		return nil, err
	}
	return &event, nil
}

func (s *MongoEventStore) Delete(ctx context.Context, id, organizerID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "organizerId": organizerID})
	if err != nil {
		s.logger.Error("failed to delete event", zap.String("event_id", id), zap.Error(err))
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	s.logger.Info("event deleted", zap.String("event_id", id))
	return nil
}

func (s *MongoEventStore) UpdateStatus(ctx context.Context, id string, status models.EventStatus) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	set := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	var event models.Event
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, set, opts).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *MongoEventStore) SetAverageRating(ctx context.Context, id string, avg float64) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"averageRating": avg}})
	if err != nil {
		s.logger.Error("failed to set average rating",
			zap.String("event_id", id), zap.Float64("average", avg), zap.Error(err))
	}
	return err
}

func (s *MongoEventStore) CountByCategory(ctx context.Context) ([]GroupCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"status": models.EventStatusApproved}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	return s.aggregateGroupCounts(ctx, pipeline)
}

func (s *MongoEventStore) CountUpcomingByMonth(ctx context.Context, from time.Time, limit int64) ([]GroupCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"status": models.EventStatusApproved,
			"date":   bson.M{"$gte": from},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"ym": bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$date"}},
		}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$ym", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	return s.aggregateGroupCounts(ctx, pipeline)
}

func (s *MongoEventStore) aggregateGroupCounts(ctx context.Context, pipeline mongo.Pipeline) ([]GroupCount, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("event aggregation failed", zap.Error(err))
		return nil, err
	}

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make([]GroupCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, GroupCount{Key: row.ID, Count: row.Count})
	}
	return counts, nil
}

func (s *MongoEventStore) DistinctCategories(ctx context.Context, eventIDs []string) ([]string, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	values, err := s.coll.Distinct(ctx, "category", bson.M{"_id": bson.M{"$in": eventIDs}})
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok && c != "" {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

// MongoReviewStore implements ReviewStore on a MongoDB collection.
type MongoReviewStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoReviewStore(db *mongo.Database, logger *zap.Logger) *MongoReviewStore {
	return &MongoReviewStore{
		coll:   db.Collection(collReviews),
		logger: logger.Named("mongo-review-store"),
	}
}

func (s *MongoReviewStore) Create(ctx context.Context, review *models.Review) error {
	_, err := s.coll.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		// The unique (user, event) index won the race against the pre-check.
		return ErrDuplicateReview
	}
	if err != nil {
		s.logger.Error("failed to create review",
			zap.String("event_id", review.EventID), zap.String("user_id", review.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *MongoReviewStore) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.Review, error) {
	var review models.Review
	err := s.coll.FindOne(ctx, bson.M{"user": userID, "event": eventID}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *MongoReviewStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"event": eventID}, opts)
	if err != nil {
		return nil, err
	}

	reviews := []*models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *MongoReviewStore) AverageRating(ctx context.Context, eventID string) (float64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"event": eventID}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$event", "avg": bson.M{"$avg": "$rating"}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("rating aggregation failed", zap.String("event_id", eventID), zap.Error(err))
		return 0, err
	}

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

// MongoRegistrationStore implements RegistrationStore on a MongoDB collection.
type MongoRegistrationStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoRegistrationStore(db *mongo.Database, logger *zap.Logger) *MongoRegistrationStore {
	return &MongoRegistrationStore{
		coll:   db.Collection(collRegistrations),
		logger: logger.Named("mongo-registration-store"),
	}
}

func (s *MongoRegistrationStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *MongoRegistrationStore) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{
		"event":  eventID,
		"status": bson.M{"$ne": models.RegistrationStatusCancelled},
	})
}

func (s *MongoRegistrationStore) TopEvents(ctx context.Context, limit int64) ([]GroupCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": "$event", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("registration aggregation failed", zap.Error(err))
		return nil, err
	}

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make([]GroupCount, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		counts = append(counts, GroupCount{Key: row.ID, Count: row.Count})
	}
	return counts, nil
}

func (s *MongoRegistrationStore) EventIDsForUser(ctx context.Context, userID string) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "event", bson.M{"user": userID})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MongoUserStore implements UserStore on a MongoDB collection.
type MongoUserStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoUserStore(db *mongo.Database, logger *zap.Logger) *MongoUserStore {
	return &MongoUserStore{
		coll:   db.Collection(collUsers),
		logger: logger.Named("mongo-user-store"),
	}
}

func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserStore) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID   string `bson:"_id"`
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (s *MongoUserStore) Leaderboard(ctx context.Context, limit int64) ([]*models.LeaderboardEntry, error) {
	filter := bson.M{
		"role":      bson.M{"$in": []models.UserRole{models.RoleCustomer, models.RoleOrganizer}},
		"isBlocked": false,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"name": 1, "points": 1})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("failed to fetch leaderboard", zap.Error(err))
		return nil, err
	}

	entries := []*models.LeaderboardEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MongoUserStore) CountActiveByRole(ctx context.Context, role models.UserRole) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"role": role, "isBlocked": false})
}
