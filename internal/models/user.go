package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a reference to an identity owned by the external identity
// provider. The core trusts the provider's verified user id and keeps
// only enough profile data to render memberships.
type User struct {
	UserID    uuid.UUID // UUIDv7, assigned by the identity provider
	Email     string
	FirstName string
	LastName  string
	Active    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
