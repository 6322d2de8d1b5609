package testutil

import (
	"time"

	"github.com/Shaxten/nhl-app/models"

	"github.com/shopspring/decimal"
)

// CreateTestSingleBet creates a pending bet on the home team of a TOR-MTL game
func CreateTestSingleBet(userID string, gameID int64, team string, amount int64, odds string) *models.SingleBet {
	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	return &models.SingleBet{
		UserID:     userID,
		GameID:     gameID,
		TeamChoice: team,
		Amount:     amount,
		Odds:       decimal.RequireFromString(odds),
		HomeTeam:   "TOR",
		AwayTeam:   "MTL",
		StartsAt:   &start,
		Status:     models.WagerStatusPending,
	}
}

// CreateTestParlay creates a pending parlay whose potential win matches its legs
func CreateTestParlay(userID string, stake int64, legs ...models.ParlaySelection) *models.ParlayBet {
	total := decimal.NewFromInt(1)
	for _, leg := range legs {
		total = total.Mul(leg.Odds)
	}
	return &models.ParlayBet{
		UserID:       userID,
		Selections:   legs,
		BetAmount:    stake,
		TotalOdds:    total,
		PotentialWin: decimal.NewFromInt(stake).Mul(total).Round(0).IntPart(),
		Status:       models.WagerStatusPending,
	}
}

// Leg builds one parlay selection
func Leg(gameID int64, team, odds string) models.ParlaySelection {
	return models.ParlaySelection{GameID: gameID, Team: team, Odds: decimal.RequireFromString(odds)}
}

// CreateTestPrediction creates a pending prediction, staked when stake is positive
func CreateTestPrediction(userID string, gameID int64, home, away int, stake int64, odds string) *models.ScorePrediction {
	prediction := &models.ScorePrediction{
		UserID:        userID,
		GameID:        gameID,
		HomeTeam:      "TOR",
		AwayTeam:      "MTL",
		PredictedHome: home,
		PredictedAway: away,
		Status:        models.WagerStatusPending,
	}
	if stake > 0 {
		price := decimal.RequireFromString(odds)
		prediction.ParlayAmount = stake
		prediction.ParlayOdds = &price
	}
	return prediction
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID string, transactionType models.TransactionType, before, after int64) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    after - before,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
