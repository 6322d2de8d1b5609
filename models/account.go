package models

import "time"

// Account is a user's Millcoin balance and settled-bet counters. The id is owned by the
// external identity provider.
type Account struct {
	UserID        string    `db:"user_id" json:"user_id"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	Currency      int64     `db:"currency" json:"currency"`
	BetsWon       int       `db:"bets_won" json:"bets_won"`
	BetsLost      int       `db:"bets_lost" json:"bets_lost"`
	TotalWinnings int64     `db:"total_winnings" json:"total_winnings"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StatDelta is applied to an account's counters when a single bet settles
type StatDelta struct {
	BetsWon       int
	BetsLost      int
	TotalWinnings int64
}
