package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound = errors.New("user not found")
)

// UserStore holds reference records for identities supplied by the
// external identity provider. The core never authenticates users itself;
// it upserts the profile the provider hands it and reads it back when
// rendering memberships.
type UserStore interface {
	// Upsert creates the user record or refreshes its profile fields.
	Upsert(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// SetActive flips the activity flag on a user.
	// Returns ErrUserNotFound if the user doesn't exist.
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}
