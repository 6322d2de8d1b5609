package models

import "fmt"

// LeaderboardEntry is one user's row on the leaderboard
type LeaderboardEntry struct {
	Rank                int     `json:"rank"`
	UserID              string  `json:"user_id"`
	DisplayName         string  `json:"display_name"`
	Currency            int64   `json:"currency"`
	BetsWon             int     `json:"bets_won"`
	BetsLost            int     `json:"bets_lost"`
	TotalWinnings       int64   `json:"total_winnings"`
	WinRate             float64 `json:"win_rate"` // Percentage as 0-100
	PredictionsResolved int     `json:"predictions_resolved"`
	PredictionsCorrect  int     `json:"predictions_correct"`
	PredictionAccuracy  float64 `json:"prediction_accuracy"` // Percentage as 0-100
	ParlaysWon          int     `json:"parlays_won"`
	ParlaysLost         int     `json:"parlays_lost"`
	ParlayProfit        int64   `json:"parlay_profit"`
}

// UserStats is the profile view of one account
type UserStats struct {
	Account            *Account          `json:"account"`
	Summary            *LeaderboardEntry `json:"summary"`
	PendingBets        int               `json:"pending_bets"`
	PendingParlays     int               `json:"pending_parlays"`
	PendingPredictions int               `json:"pending_predictions"`
}

// Percentage returns part/total as 0-100, and 0 when total is 0
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func formatRecord(wins, losses, otLosses int) string {
	return fmt.Sprintf("%d-%d-%d", wins, losses, otLosses)
}
