package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, user_id, name, target_amount, current_amount, description, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts goal, assigning its id and timestamps. A second goal with
// the same name (case-insensitive) for the same user yields
// common.ErrDuplicateGoalName.
func (r *PostgresRepository) Create(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	query := `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Description,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// List returns the user's goals, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select goals: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Goal, 0)
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return r.getOne(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return r.getOne(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2 FOR UPDATE`, goalID, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, userID, goalID string, patch models.GoalPatch) (*models.Goal, error) {
	query := `
		UPDATE goals SET
			name = COALESCE($3, name),
			target_amount = COALESCE($4::numeric, target_amount),
			description = COALESCE($5, description),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + goalColumns

	var target any
	if patch.TargetAmount != nil {
		target = *patch.TargetAmount
	}
	return r.getOne(ctx, query, goalID, userID, patch.Name, target, patch.Description)
}

// SetCurrentAmount stores a new balance. Callers must hold the row lock
// taken by GetForUpdate.
func (r *PostgresRepository) SetCurrentAmount(ctx context.Context, goalID string, amount decimal.Decimal) (*models.Goal, error) {
	query := `
		UPDATE goals SET current_amount = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + goalColumns

	return r.getOne(ctx, query, goalID, amount)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, goalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Summary(ctx context.Context, userID string) (*models.GoalSummary, error) {
	query := `
		SELECT COALESCE(SUM(current_amount), 0), COALESCE(SUM(target_amount), 0), COUNT(*)
		FROM goals
		WHERE user_id = $1
	`
	s := &models.GoalSummary{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.TotalBalance, &s.TotalTarget, &s.GoalCount); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Goal, error) {
	var g models.Goal
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount,
		&g.CurrentAmount, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}
	return &g, nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok && constraint == "goals_user_name_key" {
		return common.ErrDuplicateGoalName
	}
	if _, ok := dbx.CheckViolation(err); ok {
		return common.NewValidationError("amount", "amounts must not be negative")
	}
	if dbx.NumericOverflow(err) {
		return common.NewValidationError("amount", "amount is too large")
	}
	return fmt.Errorf("db error: %w", err)
}
