// Package users declares the user directory storage contract and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/celengan/internal/server/models"
)

// Repository persists users. Lookups return common.ErrorNotFound when no row
// matches; unique violations surface as common.ErrDuplicateEmail,
// common.ErrDuplicateUsername or common.ErrorAlreadyExists (external id).
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// RefreshProfile overwrites email, display name and photo URL with the
	// non-empty values given.
	RefreshProfile(ctx context.Context, id, email, displayName, photoURL string) (*models.User, error)

	// LinkExternal attaches externalID to the user and fills display name
	// and photo URL only where they are still empty.
	LinkExternal(ctx context.Context, id, externalID, displayName, photoURL string) (*models.User, error)

	SetPhotoURL(ctx context.Context, id, photoURL string) error
}
