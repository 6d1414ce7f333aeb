// Package refreshtokens stores the server-side refresh tokens used to
// rotate access tokens.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/celengan/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a refresh token by its opaque string; absent tokens
	// yield common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a token that is already gone
	// yields common.ErrorNotFound, which makes a token usable only once.
	Delete(ctx context.Context, token string) error
}
