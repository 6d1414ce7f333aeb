package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// PostingPublisher is told about every committed posting.
type PostingPublisher interface {
	PublishPosting(ctx context.Context, result *models.PostingResult) error
}

// PostingInput describes one deposit or withdrawal.
type PostingInput struct {
	GoalID      string
	Amount      decimal.Decimal
	Kind        models.EntryKind
	Description string
}

// TransactionService posts deposits and withdrawals against goals and
// answers ledger queries.
type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   PostingPublisher
	log         logging.Logger
}

// NewTransactionService builds the service. publisher may be nil.
func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, publisher PostingPublisher, log logging.Logger) *TransactionService {
	return &TransactionService{db: db, repomanager: m, publisher: publisher, log: log}
}

// Post applies one posting. The goal row is locked for the duration of the
// transaction so concurrent postings on the same goal are serialized; the
// balance change and the ledger entry commit together or not at all.
func (s *TransactionService) Post(ctx context.Context, userID string, in PostingInput) (*models.PostingResult, error) {
	if err := validateAmount(in.Amount); err != nil {
		transactionsRejected.WithLabelValues(reasonValidation).Inc()
		return nil, err
	}
	if !in.Kind.Valid() {
		transactionsRejected.WithLabelValues(reasonValidation).Inc()
		return nil, common.NewValidationError("kind", "kind must be deposit or withdrawal")
	}
	if !validID(in.GoalID) {
		transactionsRejected.WithLabelValues(reasonNotFound).Inc()
		return nil, common.ErrorNotFound
	}

	var result *models.PostingResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		goals := s.repomanager.Goals(tx)

		goal, err := goals.GetForUpdate(ctx, userID, in.GoalID)
		if err != nil {
			return err
		}

		balance := goal.CurrentAmount
		switch in.Kind {
		case models.KindDeposit:
			balance = balance.Add(in.Amount)
			if balance.GreaterThan(maxAmount) {
				return common.NewValidationError("amount", "deposit would push the goal balance above %s", maxAmount)
			}
		case models.KindWithdrawal:
			if in.Amount.GreaterThan(balance) {
				return common.ErrInsufficientFunds
			}
			balance = balance.Sub(in.Amount)
		}

		updated, err := goals.SetCurrentAmount(ctx, goal.ID, balance)
		if err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			UserID:      userID,
			GoalID:      goal.ID,
			Amount:      in.Amount,
			Kind:        in.Kind,
			Description: strings.TrimSpace(in.Description),
		}
		if err := s.repomanager.Ledger(tx).Create(ctx, entry); err != nil {
			return err
		}

		summary, err := goals.Summary(ctx, userID)
		if err != nil {
			return err
		}

		result = &models.PostingResult{Entry: entry, Goal: updated, TotalBalance: summary.TotalBalance}
		return nil
	})
	if err != nil {
		transactionsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	transactionsPosted.WithLabelValues(string(in.Kind)).Inc()
	s.log.Info(ctx, "transaction posted",
		"user_id", userID, "goal_id", in.GoalID, "kind", in.Kind, "amount", in.Amount.String())

	if s.publisher != nil {
		if err := s.publisher.PublishPosting(ctx, result); err != nil {
			s.log.Warn(ctx, "failed to publish posting", "entry_id", result.Entry.ID, "error", err)
		}
	}
	return result, nil
}

// ListByUser returns every ledger entry of the user, newest first.
func (s *TransactionService) ListByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	return s.repomanager.Ledger(s.db).ListByUser(ctx, userID)
}

// ListByGoal returns the entries of one goal, newest first. A goal the user
// does not own yields common.ErrorNotFound.
func (s *TransactionService) ListByGoal(ctx context.Context, userID, goalID string) ([]*models.LedgerEntry, error) {
	if !validID(goalID) {
		return nil, common.ErrorNotFound
	}
	if _, err := s.repomanager.Goals(s.db).Get(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return s.repomanager.Ledger(s.db).ListByGoal(ctx, userID, goalID)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return reasonInsufficientFunds
	case errors.Is(err, common.ErrorNotFound):
		return reasonNotFound
	case errors.Is(err, common.ErrorValidation):
		return reasonValidation
	default:
		return reasonError
	}
}
