package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/odds"

	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// WindowClosesAt returns when wagering on a game that starts at start stops accepting entries
func WindowClosesAt(start time.Time, cutoff time.Duration) time.Time {
	return start.Add(cutoff)
}

// IsWindowOpen reports whether now has not yet passed the close of the window
func IsWindowOpen(start time.Time, cutoff time.Duration, now time.Time) bool {
	return !now.After(WindowClosesAt(start, cutoff))
}

// openGame fetches the game and returns ErrBettingClosed when it is final or its window has passed
func openGame(ctx context.Context, feed GameFeed, gameID int64, cutoff time.Duration, now time.Time) (*models.GameResult, error) {
	result, err := feed.FetchResult(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game %d: %w", gameID, err)
	}
	if result.IsFinal() {
		return nil, fmt.Errorf("%w: game %d is final", ErrBettingClosed, gameID)
	}
	if !IsWindowOpen(result.StartTime, cutoff, now) {
		return nil, fmt.Errorf("%w: game %d closed at %s", ErrBettingClosed, gameID,
			WindowClosesAt(result.StartTime, cutoff).Format(time.RFC3339))
	}
	return result, nil
}

// checkTeams verifies the caller's view of the matchup against the oracle
func checkTeams(result *models.GameResult, homeTeam, awayTeam string) error {
	if result.HomeTeam != homeTeam || result.AwayTeam != awayTeam {
		return fmt.Errorf("%w: game %d is %s @ %s, not %s @ %s", ErrInvalidWager,
			result.GameID, result.AwayTeam, result.HomeTeam, awayTeam, homeTeam)
	}
	return nil
}

// checkOdds rejects prices outside the quoted range
func checkOdds(price decimal.Decimal) error {
	if price.LessThan(odds.Min) || price.GreaterThan(odds.Max) {
		return fmt.Errorf("%w: odds %s outside [%s, %s]", ErrInvalidWager, price, odds.Min, odds.Max)
	}
	return nil
}

// normalizeLimit applies the default and the upper bound to list page sizes
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
