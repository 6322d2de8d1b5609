package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SingleBet is a moneyline wager on one game
type SingleBet struct {
	ID         int64           `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	GameID     int64           `db:"game_id" json:"game_id"`
	TeamChoice string          `db:"team_choice" json:"team_choice"`
	Amount     int64           `db:"amount" json:"amount"`
	Odds       decimal.Decimal `db:"odds" json:"odds"`
	HomeTeam   string          `db:"home_team" json:"home_team"`
	AwayTeam   string          `db:"away_team" json:"away_team"`
	StartsAt   *time.Time      `db:"starts_at" json:"starts_at,omitempty"`
	Status     WagerStatus     `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	SettledAt  *time.Time      `db:"settled_at" json:"settled_at,omitempty"`
}

// Ref returns the ledger address of the bet
func (b *SingleBet) Ref() WagerRef {
	return WagerRef{Kind: WagerKindSingleBet, ID: b.ID}
}
