package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/models"

	"github.com/jackc/pgx/v5"
)

// Pending rows are excluded from every aggregate below
const leaderboardSelect = `
	SELECT a.user_id, a.display_name, a.currency, a.bets_won, a.bets_lost, a.total_winnings,
	       COALESCE(p.resolved, 0), COALESCE(p.correct, 0),
	       COALESCE(pb.won, 0), COALESCE(pb.lost, 0), COALESCE(pb.profit, 0)
	FROM accounts a
	LEFT JOIN (
		SELECT user_id,
		       COUNT(*) FILTER (WHERE status IN ('correct', 'incorrect')) AS resolved,
		       COUNT(*) FILTER (WHERE status = 'correct') AS correct
		FROM score_predictions
		GROUP BY user_id
	) p ON p.user_id = a.user_id
	LEFT JOIN (
		SELECT user_id,
		       COUNT(*) FILTER (WHERE status = 'won') AS won,
		       COUNT(*) FILTER (WHERE status = 'lost') AS lost,
		       SUM(CASE
		               WHEN status = 'won' THEN potential_win - bet_amount
		               WHEN status = 'lost' THEN -bet_amount
		               ELSE 0
		           END)::BIGINT AS profit
		FROM parlay_bets
		GROUP BY user_id
	) pb ON pb.user_id = a.user_id
`

// LeaderboardRepository implements the LeaderboardRepository interface. Reads run in a
// read-only repeatable-read transaction so every figure comes from the same snapshot.
type LeaderboardRepository struct {
	db *database.DB
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db *database.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func scanLeaderboardEntry(row pgx.Row) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := row.Scan(
		&e.UserID,
		&e.DisplayName,
		&e.Currency,
		&e.BetsWon,
		&e.BetsLost,
		&e.TotalWinnings,
		&e.PredictionsResolved,
		&e.PredictionsCorrect,
		&e.ParlaysWon,
		&e.ParlaysLost,
		&e.ParlayProfit,
	)
	if err != nil {
		return nil, err
	}
	e.WinRate = models.Percentage(e.BetsWon, e.BetsWon+e.BetsLost)
	e.PredictionAccuracy = models.Percentage(e.PredictionsCorrect, e.PredictionsResolved)
	return &e, nil
}

// GetEntries returns up to limit users ordered by balance descending
func (r *LeaderboardRepository) GetEntries(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := leaderboardSelect + `
		ORDER BY a.currency DESC, a.user_id
		LIMIT $1
	`

	entries := make([]*models.LeaderboardEntry, 0)
	err := r.db.WithTransaction(ctx, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			entry, err := scanLeaderboardEntry(rows)
			if err != nil {
				return err
			}
			entry.Rank = len(entries) + 1
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return entries, nil
}

// GetEntry returns one user's row with their rank by balance
func (r *LeaderboardRepository) GetEntry(ctx context.Context, userID string) (*models.LeaderboardEntry, error) {
	var entry *models.LeaderboardEntry
	err := r.db.WithTransaction(ctx, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		var err error
		entry, err = scanLeaderboardEntry(tx.QueryRow(ctx, leaderboardSelect+` WHERE a.user_id = $1`, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			entry = nil
			return nil
		}
		if err != nil {
			return err
		}

		rankQuery := `SELECT COUNT(*) + 1 FROM accounts WHERE currency > $1`
		return tx.QueryRow(ctx, rankQuery, entry.Currency).Scan(&entry.Rank)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read stats for %s: %w", userID, err)
	}
	return entry, nil
}

// CountPending returns the user's pending bets, parlays and predictions
func (r *LeaderboardRepository) CountPending(ctx context.Context, userID string) (bets, parlays, predictions int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM single_bets WHERE user_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM parlay_bets WHERE user_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM score_predictions WHERE user_id = $1 AND status = 'pending')
	`

	err = r.db.WithTransaction(ctx, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, userID).Scan(&bets, &parlays, &predictions)
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count pending wagers for %s: %w", userID, err)
	}
	return bets, parlays, predictions, nil
}
