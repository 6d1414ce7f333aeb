package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind tells whether a ledger entry added to or took from a goal.
type EntryKind string

const (
	KindDeposit    EntryKind = "deposit"
	KindWithdrawal EntryKind = "withdrawal"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// LedgerEntry is an immutable record of one posting against a goal.
type LedgerEntry struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	GoalID      string          `json:"goal_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        EntryKind       `json:"kind"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PostingResult is returned after a successful posting.
type PostingResult struct {
	Entry        *LedgerEntry    `json:"ledger_entry"`
	Goal         *Goal           `json:"updated_goal"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}
