// Package ledger persists the append-only record of deposits and withdrawals.
package ledger

import (
	"context"

	"github.com/dmitrijs2005/celengan/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error)
	ListByGoal(ctx context.Context, userID, goalID string) ([]*models.LedgerEntry, error)
	DeleteByGoal(ctx context.Context, goalID string) (int64, error)
}
