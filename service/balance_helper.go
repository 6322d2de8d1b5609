package service

import (
	"context"
	"fmt"

	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/observability"
)

// RecordBalanceChange records a balance history entry and emits appropriate events.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Flushed after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})
	observability.GetMetrics().RecordBalanceTransaction(string(history.TransactionType))

	if history.TransactionType == models.TransactionTypeInitial {
		displayName, _ := history.TransactionMetadata["display_name"].(string)
		uow.EventBus().Publish(events.AccountCreatedEvent{
			UserID:         history.UserID,
			DisplayName:    displayName,
			InitialBalance: history.BalanceAfter,
		})
	}

	return nil
}

// debit takes amount from the user and records the movement
func debit(ctx context.Context, uow UnitOfWork, userID string, amount int64, txType models.TransactionType, metadata map[string]any) (int64, error) {
	balance, err := uow.AccountRepository().Debit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	history := &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       balance + amount,
		BalanceAfter:        balance,
		ChangeAmount:        -amount,
		TransactionType:     txType,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return balance, nil
}

// credit gives amount to the user and records the movement
func credit(ctx context.Context, uow UnitOfWork, userID string, amount int64, txType models.TransactionType, metadata map[string]any) (int64, error) {
	balance, err := uow.AccountRepository().Credit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	history := &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       balance - amount,
		BalanceAfter:        balance,
		ChangeAmount:        amount,
		TransactionType:     txType,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}
	return balance, nil
}
