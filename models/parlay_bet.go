package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParlaySelection is one leg of a parlay
type ParlaySelection struct {
	GameID int64           `json:"game_id" validate:"required,gt=0"`
	Team   string          `json:"team" validate:"required,len=3,alpha"`
	Odds   decimal.Decimal `json:"odds"`
}

// ParlayBet is an all-or-nothing wager across two or more games
type ParlayBet struct {
	ID           int64             `db:"id" json:"id"`
	UserID       string            `db:"user_id" json:"user_id"`
	Selections   []ParlaySelection `db:"selections" json:"selections"`
	BetAmount    int64             `db:"bet_amount" json:"bet_amount"`
	TotalOdds    decimal.Decimal   `db:"total_odds" json:"total_odds"`
	PotentialWin int64             `db:"potential_win" json:"potential_win"`
	Status       WagerStatus       `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	SettledAt    *time.Time        `db:"settled_at" json:"settled_at,omitempty"`
}

// Ref returns the ledger address of the parlay
func (p *ParlayBet) Ref() WagerRef {
	return WagerRef{Kind: WagerKindParlay, ID: p.ID}
}

// GameIDs returns the distinct games the parlay depends on, in leg order
func (p *ParlayBet) GameIDs() []int64 {
	seen := make(map[int64]bool, len(p.Selections))
	ids := make([]int64, 0, len(p.Selections))
	for _, sel := range p.Selections {
		if !seen[sel.GameID] {
			seen[sel.GameID] = true
			ids = append(ids, sel.GameID)
		}
	}
	return ids
}
