package cache

import "time"

// Every cache key and TTL lives here so that static and parameterized keys
// are namespaced per logical resource and cannot collide.

// TTLs are sized to data volatility: the summary totals move on every
// registration, so they expire fastest.
const (
	TTLEventList       = 60 * time.Second
	TTLEventDetail     = 60 * time.Second
	TTLReviews         = 60 * time.Second
	TTLLeaderboard     = 60 * time.Second
	TTLRecommendations = 60 * time.Second
	TTLSummary         = 30 * time.Second
	TTLTrending        = 60 * time.Second
	TTLDashboard       = 60 * time.Second
)

// Static keys: one value process-wide.
const (
	KeyEventList   = "events:list"
	KeyLeaderboard = "stats:leaderboard"
	KeySummary     = "stats:summary"
	KeyTrending    = "stats:trending"
	KeyDashboard   = "stats:dashboard"
)

// EventKey caches one event's detail payload.
func EventKey(eventID string) string {
	return "event:" + eventID
}

// ReviewsKey caches the review list of one event.
func ReviewsKey(eventID string) string {
	return "reviews:" + eventID
}

// RecommendationsKey caches one user's personalized event recommendations.
func RecommendationsKey(userID string) string {
	return "user:" + userID + ":recommendations"
}
