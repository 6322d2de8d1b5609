package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeBetPlaced       TransactionType = "bet_placed"
	TransactionTypeBetWon          TransactionType = "bet_won"
	TransactionTypeBetRefund       TransactionType = "bet_refund"
	TransactionTypeBetCancelled    TransactionType = "bet_cancelled"
	TransactionTypeParlayPlaced    TransactionType = "parlay_placed"
	TransactionTypeParlayWon       TransactionType = "parlay_won"
	TransactionTypePredictionStake TransactionType = "prediction_stake"
	TransactionTypePredictionWon   TransactionType = "prediction_won"
)

// BalanceHistory represents one currency movement on an account
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              string          `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	CreatedAt           time.Time       `db:"created_at"`
}
