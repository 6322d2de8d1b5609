package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `user_id, display_name, currency, bets_won, bets_lost, total_winnings, created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.UserID,
		&account.DisplayName,
		&account.Currency,
		&account.BetsWon,
		&account.BetsLost,
		&account.TotalWinnings,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves an account by its user id
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return account, nil
}

// Create inserts an account. Both unique keys are absorbed by ON CONFLICT so a clash never
// aborts the surrounding transaction; which key clashed is worked out afterwards.
func (r *AccountRepository) Create(ctx context.Context, userID, displayName string, initialBalance int64) (*models.Account, bool, error) {
	query := `
		INSERT INTO accounts (user_id, display_name, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID, displayName, initialBalance))
	if err == nil {
		return account, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create account %s: %w", userID, err)
	}

	existing, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("failed to create account %s as %q: %w", userID, displayName, service.ErrDisplayNameTaken)
}

// UpdateDisplayName renames an account
func (r *AccountRepository) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	query := `
		UPDATE accounts
		SET display_name = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID, displayName)
	if isUniqueViolation(err, "accounts_display_name_key") {
		return fmt.Errorf("failed to rename account %s: %w", userID, service.ErrDisplayNameTaken)
	}
	if err != nil {
		return fmt.Errorf("failed to rename account %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to rename account %s: %w", userID, service.ErrAccountNotFound)
	}
	return nil
}

// Debit subtracts amount only when the balance covers it
func (r *AccountRepository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	query := `
		UPDATE accounts
		SET currency = currency - $2, updated_at = NOW()
		WHERE user_id = $1 AND currency >= $2
		RETURNING currency
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit %d from %s: %w", amount, userID, service.ErrInsufficientFunds)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit %d from %s: %w", amount, userID, err)
	}
	return balance, nil
}

// Credit adds amount to the balance
func (r *AccountRepository) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount cannot be negative, got %d", amount)
	}
	query := `
		UPDATE accounts
		SET currency = currency + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING currency
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to credit %d to %s: %w", amount, userID, service.ErrAccountNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit %d to %s: %w", amount, userID, err)
	}
	return balance, nil
}

// ApplyStats adds the delta to the settled-bet counters
func (r *AccountRepository) ApplyStats(ctx context.Context, userID string, delta models.StatDelta) error {
	query := `
		UPDATE accounts
		SET bets_won = bets_won + $2,
		    bets_lost = bets_lost + $3,
		    total_winnings = total_winnings + $4,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID, delta.BetsWon, delta.BetsLost, delta.TotalWinnings)
	if err != nil {
		return fmt.Errorf("failed to update stats for %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update stats for %s: %w", userID, service.ErrAccountNotFound)
	}
	return nil
}
