package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a named savings target ("piggy bank") owned by one user.
// CurrentAmount is never negative; a zero TargetAmount means no target.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GoalPatch holds the fields of a partial goal update; nil means unchanged.
type GoalPatch struct {
	Name         *string
	TargetAmount *decimal.Decimal
	Description  *string
}

// GoalSummary aggregates all goals of a user.
type GoalSummary struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	TotalTarget  decimal.Decimal `json:"total_target"`
	GoalCount    int             `json:"goal_count"`
}
