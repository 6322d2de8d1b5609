package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/jackc/pgx/v5"
)

// Tables addressed by a WagerRef
var wagerTables = map[models.WagerKind]string{
	models.WagerKindSingleBet:  "single_bets",
	models.WagerKindParlay:     "parlay_bets",
	models.WagerKindPrediction: "score_predictions",
}

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	singleBetRepo    service.SingleBetRepository
	parlayBetRepo    service.ParlayBetRepository
	predictionRepo   service.ScorePredictionRepository
	balanceHistory   service.BalanceHistoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.singleBetRepo = newSingleBetRepositoryWithTx(tx)
	u.parlayBetRepo = newParlayBetRepositoryWithTx(tx)
	u.predictionRepo = newScorePredictionRepositoryWithTx(tx)
	u.balanceHistory = newBalanceHistoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// CompareAndTransition flips the wager's status only if it still holds expected, then runs
// sideEffect inside the same transaction. The caller owns commit and rollback.
func (u *unitOfWork) CompareAndTransition(ctx context.Context, ref models.WagerRef, expected, next models.WagerStatus, sideEffect func() error) error {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
	if err := ref.ValidateTransition(expected, next); err != nil {
		return err
	}
	table, ok := wagerTables[ref.Kind]
	if !ok {
		return fmt.Errorf("unknown wager kind %q", ref.Kind)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, settled_at = NOW()
		WHERE id = $2 AND status = $3
	`, table)

	result, err := u.tx.Exec(ctx, query, next, ref.ID, expected)
	if err != nil {
		return fmt.Errorf("failed to transition %s to %s: %w", ref, next, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s is no longer %s: %w", ref, expected, service.ErrConcurrentSettlement)
	}

	if sideEffect == nil {
		return nil
	}
	return sideEffect()
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// SingleBetRepository returns the single bet repository for this unit of work
func (u *unitOfWork) SingleBetRepository() service.SingleBetRepository {
	if u.singleBetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.singleBetRepo
}

// ParlayBetRepository returns the parlay repository for this unit of work
func (u *unitOfWork) ParlayBetRepository() service.ParlayBetRepository {
	if u.parlayBetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.parlayBetRepo
}

// ScorePredictionRepository returns the prediction repository for this unit of work
func (u *unitOfWork) ScorePredictionRepository() service.ScorePredictionRepository {
	if u.predictionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.predictionRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistory == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistory
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
