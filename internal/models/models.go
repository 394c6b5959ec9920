package models

import "time"

// EventStatus is the moderation state of an event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

// RegistrationStatus tracks a user's attendance state for an event.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusAttended   RegistrationStatus = "attended"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// UserRole identifies what a user can do on the platform.
type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

// Event is the source of truth for scheduling, venue and category data.
// AverageRating is a derived projection over Review rows; it is recomputed
// whenever the event's review set changes and must never be edited directly.
type Event struct {
	ID            string      `bson:"_id" json:"id"`
	Title         string      `bson:"title" json:"title"`
	Description   string      `bson:"description,omitempty" json:"description,omitempty"`
	Category      string      `bson:"category" json:"category"`
	Venue         string      `bson:"venue,omitempty" json:"venue,omitempty"`
	Date          time.Time   `bson:"date" json:"date"`
	Status        EventStatus `bson:"status" json:"status"`
	OrganizerID   string      `bson:"organizerId" json:"organizerId"`
	OrganizerName string      `bson:"-" json:"organizerName,omitempty"`
	PosterURL     string      `bson:"posterUrl,omitempty" json:"posterUrl,omitempty"`
	AverageRating float64     `bson:"averageRating" json:"averageRating"`
	// Registrations is only populated on the trending "popular" list.
	Registrations int64     `bson:"-" json:"registrations,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Review is one user's rating of one event. At most one review may exist per
// (user, event) pair; the store enforces this with a unique compound index.
type Review struct {
	ID        string    `bson:"_id" json:"id"`
	EventID   string    `bson:"event" json:"eventId"`
	UserID    string    `bson:"user" json:"userId"`
	UserName  string    `bson:"-" json:"userName,omitempty"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Registration links a user to an event. Non-cancelled registrations are the
// count basis for occupancy and trending popularity.
type Registration struct {
	ID        string             `bson:"_id" json:"id"`
	EventID   string             `bson:"event" json:"eventId"`
	UserID    string             `bson:"user" json:"userId"`
	Status    RegistrationStatus `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// User carries only the fields the event platform reads. Account management
// lives in another service.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      UserRole  `bson:"role" json:"role"`
	IsBlocked bool      `bson:"isBlocked" json:"isBlocked"`
	Points    int64     `bson:"points" json:"points"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// LeaderboardEntry is a row of the points leaderboard.
type LeaderboardEntry struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Points int64  `bson:"points" json:"points"`
}
