package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReview is returned when a user already reviewed an event.
	// It is raised by a defensive pre-check and, under a concurrent race, by
	// the store's unique (user, event) index.
	ErrDuplicateReview = errors.New("review already exists for this user and event")
)
