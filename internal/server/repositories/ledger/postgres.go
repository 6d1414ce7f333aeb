package ledger

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/google/uuid"
)

const entryColumns = `id, user_id, goal_id, amount, kind, description, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends entry, assigning its id and creation time.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO ledger_entries (id, user_id, goal_id, amount, kind, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.GoalID, entry.Amount, string(entry.Kind), entry.Description,
	).Scan(&entry.CreatedAt)
	if dbx.NumericOverflow(err) {
		return common.NewValidationError("amount", "amount is too large")
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns all entries of userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
}

// ListByGoal returns the entries of one goal owned by userID, newest first.
func (r *PostgresRepository) ListByGoal(ctx context.Context, userID, goalID string) ([]*models.LedgerEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE user_id = $1 AND goal_id = $2 ORDER BY created_at DESC, id`,
		userID, goalID)
}

// DeleteByGoal removes every entry of goalID and reports how many went.
func (r *PostgresRepository) DeleteByGoal(ctx context.Context, goalID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE goal_id = $1`, goalID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LedgerEntry, 0)
	for rows.Next() {
		var (
			e    models.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.GoalID, &e.Amount, &kind, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = models.EntryKind(kind)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
