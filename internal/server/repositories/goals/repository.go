// Package goals persists savings goals. Every lookup is scoped by owner so a
// goal owned by someone else is indistinguishable from a missing one.
package goals

import (
	"context"

	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, goal *models.Goal) error
	List(ctx context.Context, userID string) ([]*models.Goal, error)
	Get(ctx context.Context, userID, goalID string) (*models.Goal, error)

	// GetForUpdate reads the goal and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, userID, goalID string) (*models.Goal, error)

	Update(ctx context.Context, userID, goalID string, patch models.GoalPatch) (*models.Goal, error)
	SetCurrentAmount(ctx context.Context, goalID string, amount decimal.Decimal) (*models.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error

	// Summary aggregates balance and targets over all goals of userID.
	Summary(ctx context.Context, userID string) (*models.GoalSummary, error)
}
