package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScorePrediction is a guess at the exact final score of one game, optionally staked
type ScorePrediction struct {
	ID            int64            `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	GameID        int64            `db:"game_id" json:"game_id"`
	HomeTeam      string           `db:"home_team" json:"home_team"`
	AwayTeam      string           `db:"away_team" json:"away_team"`
	PredictedHome int              `db:"predicted_home" json:"predicted_home"`
	PredictedAway int              `db:"predicted_away" json:"predicted_away"`
	ActualHome    *int             `db:"actual_home" json:"actual_home,omitempty"`
	ActualAway    *int             `db:"actual_away" json:"actual_away,omitempty"`
	ParlayAmount  int64            `db:"parlay_amount" json:"parlay_amount"`
	ParlayOdds    *decimal.Decimal `db:"parlay_odds" json:"parlay_odds,omitempty"`
	Status        WagerStatus      `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
	SettledAt     *time.Time       `db:"settled_at" json:"settled_at,omitempty"`
}

// Ref returns the ledger address of the prediction
func (p *ScorePrediction) Ref() WagerRef {
	return WagerRef{Kind: WagerKindPrediction, ID: p.ID}
}

// IsStaked reports whether currency is riding on the prediction
func (p *ScorePrediction) IsStaked() bool {
	return p.ParlayAmount > 0 && p.ParlayOdds != nil
}

// Matches reports whether both predicted scores equal the actual ones
func (p *ScorePrediction) Matches(home, away int) bool {
	return p.PredictedHome == home && p.PredictedAway == away
}
