package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// GoalInput carries the fields of a goal to create. A nil TargetAmount
// means no target.
type GoalInput struct {
	Name         string
	TargetAmount *decimal.Decimal
	Description  string
}

// GoalService manages a user's savings goals. Every operation is scoped by
// owner: a goal of another user behaves as if it did not exist.
type GoalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewGoalService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *GoalService {
	return &GoalService{db: db, repomanager: m, log: log}
}

// Create adds a goal with a zero balance.
func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateGoalName(name); err != nil {
		return nil, err
	}
	target := decimal.Zero
	if in.TargetAmount != nil {
		target = *in.TargetAmount
	}
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	goal := &models.Goal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		Description:   strings.TrimSpace(in.Description),
	}
	if err := s.repomanager.Goals(s.db).Create(ctx, goal); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "goal created", "user_id", userID, "goal_id", goal.ID)
	return goal, nil
}

// List returns the user's goals, newest first.
func (s *GoalService) List(ctx context.Context, userID string) ([]*models.Goal, error) {
	return s.repomanager.Goals(s.db).List(ctx, userID)
}

func (s *GoalService) Get(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	if !validID(goalID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Goals(s.db).Get(ctx, userID, goalID)
}

// Update applies a partial change. Lowering the target below the current
// balance is allowed.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, patch models.GoalPatch) (*models.Goal, error) {
	if !validID(goalID) {
		return nil, common.ErrorNotFound
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validateGoalName(name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.TargetAmount != nil {
		if err := validateTarget(*patch.TargetAmount); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}
	return s.repomanager.Goals(s.db).Update(ctx, userID, goalID, patch)
}

// Delete removes the goal together with its ledger entries.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	if !validID(goalID) {
		return common.ErrorNotFound
	}

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		goals := s.repomanager.Goals(tx)
		if _, err := goals.GetForUpdate(ctx, userID, goalID); err != nil {
			return err
		}
		n, err := s.repomanager.Ledger(tx).DeleteByGoal(ctx, goalID)
		if err != nil {
			return err
		}
		removed = n
		return goals.Delete(ctx, userID, goalID)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "goal deleted", "user_id", userID, "goal_id", goalID, "entries_removed", removed)
	return nil
}

// Summary aggregates balance and target over all goals of the user.
func (s *GoalService) Summary(ctx context.Context, userID string) (*models.GoalSummary, error) {
	return s.repomanager.Goals(s.db).Summary(ctx, userID)
}
