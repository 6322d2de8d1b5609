package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const parlayColumns = `id, user_id, selections, bet_amount, total_odds::text, potential_win, status, created_at, settled_at`

// ParlayBetRepository implements the ParlayBetRepository interface
type ParlayBetRepository struct {
	q queryable
}

// NewParlayBetRepository creates a new parlay repository
func NewParlayBetRepository(db *database.DB) *ParlayBetRepository {
	return &ParlayBetRepository{q: db.Pool}
}

// newParlayBetRepositoryWithTx creates a new parlay repository with a transaction
func newParlayBetRepositoryWithTx(tx queryable) *ParlayBetRepository {
	return &ParlayBetRepository{q: tx}
}

func scanParlay(row pgx.Row) (*models.ParlayBet, error) {
	var parlay models.ParlayBet
	var selectionsJSON []byte
	var totalOdds string
	err := row.Scan(
		&parlay.ID,
		&parlay.UserID,
		&selectionsJSON,
		&parlay.BetAmount,
		&totalOdds,
		&parlay.PotentialWin,
		&parlay.Status,
		&parlay.CreatedAt,
		&parlay.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(selectionsJSON, &parlay.Selections); err != nil {
		return nil, fmt.Errorf("invalid selections on parlay %d: %w", parlay.ID, err)
	}
	if parlay.TotalOdds, err = decimal.NewFromString(totalOdds); err != nil {
		return nil, fmt.Errorf("invalid total odds %q on parlay %d: %w", totalOdds, parlay.ID, err)
	}
	return &parlay, nil
}

func collectParlays(rows pgx.Rows) ([]*models.ParlayBet, error) {
	defer rows.Close()

	parlays := make([]*models.ParlayBet, 0)
	for rows.Next() {
		parlay, err := scanParlay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parlay: %w", err)
		}
		parlays = append(parlays, parlay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parlays: %w", err)
	}
	return parlays, nil
}

// Create inserts a pending parlay. Selections are stored as an ordered JSON array.
func (r *ParlayBetRepository) Create(ctx context.Context, parlay *models.ParlayBet) error {
	selectionsJSON, err := json.Marshal(parlay.Selections)
	if err != nil {
		return fmt.Errorf("failed to marshal parlay selections: %w", err)
	}

	query := `
		INSERT INTO parlay_bets (user_id, selections, bet_amount, total_odds, potential_win, status)
		VALUES ($1, $2, $3, $4::text::numeric, $5, 'pending')
		RETURNING id, status, created_at
	`

	err = r.q.QueryRow(ctx, query,
		parlay.UserID,
		selectionsJSON,
		parlay.BetAmount,
		parlay.TotalOdds.String(),
		parlay.PotentialWin,
	).Scan(&parlay.ID, &parlay.Status, &parlay.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create parlay for %s: %w", parlay.UserID, err)
	}
	return nil
}

// GetByID retrieves a parlay by its ID
func (r *ParlayBetRepository) GetByID(ctx context.Context, id int64) (*models.ParlayBet, error) {
	query := `SELECT ` + parlayColumns + ` FROM parlay_bets WHERE id = $1`

	parlay, err := scanParlay(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parlay %d: %w", id, err)
	}
	return parlay, nil
}

// GetByUser returns a user's parlays, newest first
func (r *ParlayBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlay_bets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get parlays for %s: %w", userID, err)
	}
	return collectParlays(rows)
}

// GetPending returns every pending parlay, oldest first
func (r *ParlayBetRepository) GetPending(ctx context.Context) ([]*models.ParlayBet, error) {
	query := `
		SELECT ` + parlayColumns + `
		FROM parlay_bets
		WHERE status = 'pending'
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending parlays: %w", err)
	}
	return collectParlays(rows)
}
