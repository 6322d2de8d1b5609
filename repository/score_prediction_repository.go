package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const predictionColumns = `id, user_id, game_id, home_team, away_team, predicted_home, predicted_away,
	actual_home, actual_away, parlay_amount, parlay_odds::text, status, created_at, updated_at, settled_at`

// ScorePredictionRepository implements the ScorePredictionRepository interface
type ScorePredictionRepository struct {
	q queryable
}

// NewScorePredictionRepository creates a new score prediction repository
func NewScorePredictionRepository(db *database.DB) *ScorePredictionRepository {
	return &ScorePredictionRepository{q: db.Pool}
}

// newScorePredictionRepositoryWithTx creates a new score prediction repository with a transaction
func newScorePredictionRepositoryWithTx(tx queryable) *ScorePredictionRepository {
	return &ScorePredictionRepository{q: tx}
}

func scanPrediction(row pgx.Row) (*models.ScorePrediction, error) {
	var p models.ScorePrediction
	var parlayOdds *string
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.GameID,
		&p.HomeTeam,
		&p.AwayTeam,
		&p.PredictedHome,
		&p.PredictedAway,
		&p.ActualHome,
		&p.ActualAway,
		&p.ParlayAmount,
		&parlayOdds,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if parlayOdds != nil {
		odds, err := decimal.NewFromString(*parlayOdds)
		if err != nil {
			return nil, fmt.Errorf("invalid parlay odds %q on prediction %d: %w", *parlayOdds, p.ID, err)
		}
		p.ParlayOdds = &odds
	}
	return &p, nil
}

func collectPredictions(rows pgx.Rows) ([]*models.ScorePrediction, error) {
	defer rows.Close()

	predictions := make([]*models.ScorePrediction, 0)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return predictions, nil
}

// Create inserts a pending prediction. The (user_id, game_id) key is absorbed by
// ON CONFLICT so a duplicate leaves the transaction usable.
func (r *ScorePredictionRepository) Create(ctx context.Context, p *models.ScorePrediction) error {
	var parlayOdds *string
	if p.ParlayOdds != nil {
		s := p.ParlayOdds.String()
		parlayOdds = &s
	}

	query := `
		INSERT INTO score_predictions
		(user_id, game_id, home_team, away_team, predicted_home, predicted_away, parlay_amount, parlay_odds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, 'pending')
		ON CONFLICT ON CONSTRAINT score_predictions_user_game_key DO NOTHING
		RETURNING id, status, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		p.UserID,
		p.GameID,
		p.HomeTeam,
		p.AwayTeam,
		p.PredictedHome,
		p.PredictedAway,
		p.ParlayAmount,
		parlayOdds,
	).Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to create prediction for %s on game %d: %w", p.UserID, p.GameID, service.ErrDuplicatePrediction)
	}
	if err != nil {
		return fmt.Errorf("failed to create prediction for %s on game %d: %w", p.UserID, p.GameID, err)
	}
	return nil
}

// GetByID retrieves a prediction by its ID
func (r *ScorePredictionRepository) GetByID(ctx context.Context, id int64) (*models.ScorePrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM score_predictions WHERE id = $1`

	p, err := scanPrediction(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction %d: %w", id, err)
	}
	return p, nil
}

// GetByUserAndGame retrieves the user's prediction for one game
func (r *ScorePredictionRepository) GetByUserAndGame(ctx context.Context, userID string, gameID int64) (*models.ScorePrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM score_predictions WHERE user_id = $1 AND game_id = $2`

	p, err := scanPrediction(r.q.QueryRow(ctx, query, userID, gameID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction for %s on game %d: %w", userID, gameID, err)
	}
	return p, nil
}

// GetByUser returns a user's predictions, newest first
func (r *ScorePredictionRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM score_predictions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions for %s: %w", userID, err)
	}
	return collectPredictions(rows)
}

// GetPending returns every pending prediction grouped by game
func (r *ScorePredictionRepository) GetPending(ctx context.Context) ([]*models.ScorePrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM score_predictions
		WHERE status = 'pending'
		ORDER BY game_id, id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending predictions: %w", err)
	}
	return collectPredictions(rows)
}

// UpdatePredictedScores overwrites the guess of a pending prediction owned by userID
func (r *ScorePredictionRepository) UpdatePredictedScores(ctx context.Context, id int64, userID string, home, away int) (bool, error) {
	query := `
		UPDATE score_predictions
		SET predicted_home = $3, predicted_away = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, id, userID, home, away)
	if err != nil {
		return false, fmt.Errorf("failed to update prediction %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// RecordActualScores stores the final score on the prediction
func (r *ScorePredictionRepository) RecordActualScores(ctx context.Context, id int64, home, away int) error {
	query := `
		UPDATE score_predictions
		SET actual_home = $2, actual_away = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id, home, away)
	if err != nil {
		return fmt.Errorf("failed to record actual score on prediction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to record actual score on prediction %d: %w", id, service.ErrWagerNotFound)
	}
	return nil
}
