package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const singleBetColumns = `id, user_id, game_id, team_choice, amount, odds::text, home_team, away_team, starts_at, status, created_at, settled_at`

// SingleBetRepository implements the SingleBetRepository interface
type SingleBetRepository struct {
	q queryable
}

// NewSingleBetRepository creates a new single bet repository
func NewSingleBetRepository(db *database.DB) *SingleBetRepository {
	return &SingleBetRepository{q: db.Pool}
}

// newSingleBetRepositoryWithTx creates a new single bet repository with a transaction
func newSingleBetRepositoryWithTx(tx queryable) *SingleBetRepository {
	return &SingleBetRepository{q: tx}
}

func scanSingleBet(row pgx.Row) (*models.SingleBet, error) {
	var bet models.SingleBet
	var odds string
	err := row.Scan(
		&bet.ID,
		&bet.UserID,
		&bet.GameID,
		&bet.TeamChoice,
		&bet.Amount,
		&odds,
		&bet.HomeTeam,
		&bet.AwayTeam,
		&bet.StartsAt,
		&bet.Status,
		&bet.CreatedAt,
		&bet.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if bet.Odds, err = decimal.NewFromString(odds); err != nil {
		return nil, fmt.Errorf("invalid odds %q on bet %d: %w", odds, bet.ID, err)
	}
	return &bet, nil
}

func collectSingleBets(rows pgx.Rows) ([]*models.SingleBet, error) {
	defer rows.Close()

	bets := make([]*models.SingleBet, 0)
	for rows.Next() {
		bet, err := scanSingleBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bets: %w", err)
	}
	return bets, nil
}

// Create inserts a pending bet
func (r *SingleBetRepository) Create(ctx context.Context, bet *models.SingleBet) error {
	query := `
		INSERT INTO single_bets (user_id, game_id, team_choice, amount, odds, home_team, away_team, starts_at, status)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8, 'pending')
		RETURNING id, status, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		bet.GameID,
		bet.TeamChoice,
		bet.Amount,
		bet.Odds.String(),
		bet.HomeTeam,
		bet.AwayTeam,
		bet.StartsAt,
	).Scan(&bet.ID, &bet.Status, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet for %s on game %d: %w", bet.UserID, bet.GameID, err)
	}
	return nil
}

// GetByID retrieves a bet by its ID
func (r *SingleBetRepository) GetByID(ctx context.Context, id int64) (*models.SingleBet, error) {
	query := `SELECT ` + singleBetColumns + ` FROM single_bets WHERE id = $1`

	bet, err := scanSingleBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetByUser returns a user's bets, newest first
func (r *SingleBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error) {
	query := `
		SELECT ` + singleBetColumns + `
		FROM single_bets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for %s: %w", userID, err)
	}
	return collectSingleBets(rows)
}

// GetPending returns every pending bet grouped by game
func (r *SingleBetRepository) GetPending(ctx context.Context) ([]*models.SingleBet, error) {
	query := `
		SELECT ` + singleBetColumns + `
		FROM single_bets
		WHERE status = 'pending'
		ORDER BY game_id, id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets: %w", err)
	}
	return collectSingleBets(rows)
}

// DeletePending removes a pending bet owned by userID. The status guard makes a
// cancellation and a settlement of the same bet mutually exclusive.
func (r *SingleBetRepository) DeletePending(ctx context.Context, id int64, userID string) (*models.SingleBet, error) {
	query := `
		DELETE FROM single_bets
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		RETURNING ` + singleBetColumns

	bet, err := scanSingleBet(r.q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete bet %d: %w", id, err)
	}
	return bet, nil
}
