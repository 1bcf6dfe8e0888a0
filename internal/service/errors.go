package service

import (
	"errors"

	"github.com/mrahman/messbook/internal/storage"
)

// Service-level errors. Storage sentinels pass through unchanged so
// callers can errors.Is against either package; these add the failure
// modes storage cannot know about.
var (
	// ErrInvalidInput means the request failed domain validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated means no valid identity accompanied the call.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUnauthorized means the actor lacks the role for this operation.
	ErrUnauthorized = errors.New("operation not permitted")

	// ErrMealLocked means the slot's cutoff has passed for the actor.
	ErrMealLocked = errors.New("meal slot is locked")

	// Re-exported storage sentinels.
	ErrNotFound         = storage.ErrNotFound
	ErrNoOpenCycle      = storage.ErrNoOpenCycle
	ErrCycleClosed      = storage.ErrCycleClosed
	ErrAlreadyFinalized = storage.ErrAlreadyFinalized
	ErrDuplicate        = storage.ErrDuplicate
)
