// Package services defines the business logic for the watch pipeline, user
// preference management, and notification delivery. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages should be performed at the bot
// command layer or HTTP handlers.
package services

import "errors"

var (
	// ErrCheckInProgress is returned when a check run is triggered for a
	// user whose previous run has not finished. The trigger is dropped,
	// not queued.
	ErrCheckInProgress = errors.New("check already in progress")

	// ErrDuplicateURL is returned when a user adds a monitor URL they
	// already watch (exact string match).
	ErrDuplicateURL = errors.New("url already monitored")

	// ErrURLNotFound is returned when a removal index does not refer to
	// one of the user's monitor URLs.
	ErrURLNotFound = errors.New("url not found")

	// ErrInvalidURL is returned when an added monitor URL is not an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid monitor url")

	// ErrNoPendingLogin is returned when an OTP is submitted but no login
	// was started for the user.
	ErrNoPendingLogin = errors.New("no login in progress")
)
