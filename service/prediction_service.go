package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaxten/nhl-app/config"
	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/observability"
	"github.com/Shaxten/nhl-app/odds"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// predictionService implements the PredictionService interface
type predictionService struct {
	uowFactory UnitOfWorkFactory
	feed       GameFeed
	games      GameService
	now        func() time.Time
}

// NewPredictionService creates a new prediction service
func NewPredictionService(uowFactory UnitOfWorkFactory, feed GameFeed, games GameService) PredictionService {
	return &predictionService{
		uowFactory: uowFactory,
		feed:       feed,
		games:      games,
		now:        time.Now,
	}
}

// SubmitPrediction records one exact-score guess per user and game. A positive stake is
// debited and priced at the predicted winner's odds times the long-shot factor.
func (s *predictionService) SubmitPrediction(ctx context.Context, userID string, gameID int64, homeTeam, awayTeam string, predictedHome, predictedAway int, stake int64) (*models.ScorePrediction, error) {
	if predictedHome < 0 || predictedAway < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrInvalidWager)
	}
	if stake < 0 {
		return nil, fmt.Errorf("%w: stake cannot be negative", ErrInvalidWager)
	}

	result, err := openGame(ctx, s.feed, gameID, config.Get().PredictionCutoff, s.now())
	if err != nil {
		return nil, err
	}
	if err := checkTeams(result, homeTeam, awayTeam); err != nil {
		return nil, err
	}

	prediction := &models.ScorePrediction{
		UserID:        userID,
		GameID:        gameID,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		PredictedHome: predictedHome,
		PredictedAway: predictedAway,
		Status:        models.WagerStatusPending,
	}
	if stake > 0 {
		price, err := s.exactScoreOdds(ctx, gameID, homeTeam, awayTeam, predictedHome, predictedAway)
		if err != nil {
			return nil, err
		}
		prediction.ParlayAmount = stake
		prediction.ParlayOdds = &price
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.ScorePredictionRepository().GetByUserAndGame(ctx, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing prediction: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: game %d", ErrDuplicatePrediction, gameID)
	}

	// The unique constraint catches a concurrent submit that passed the check above
	if err := uow.ScorePredictionRepository().Create(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}

	if stake > 0 {
		if _, err := debit(ctx, uow, userID, stake, models.TransactionTypePredictionStake, map[string]any{
			"prediction_id": prediction.ID,
			"game_id":       gameID,
			"odds":          prediction.ParlayOdds.String(),
		}); err != nil {
			return nil, fmt.Errorf("failed to debit stake: %w", err)
		}
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		Kind:   models.WagerKindPrediction,
		ID:     prediction.ID,
		UserID: userID,
		Amount: stake,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	observability.GetMetrics().RecordWagerPlaced(string(models.WagerKindPrediction))

	log.WithFields(log.Fields{
		"predictionID": prediction.ID,
		"userID":       userID,
		"gameID":       gameID,
		"score":        fmt.Sprintf("%d-%d", predictedHome, predictedAway),
		"stake":        stake,
	}).Info("Prediction submitted")
	return prediction, nil
}

// exactScoreOdds prices a staked prediction. A predicted tie uses the base odds.
func (s *predictionService) exactScoreOdds(ctx context.Context, gameID int64, homeTeam, awayTeam string, predictedHome, predictedAway int) (decimal.Decimal, error) {
	if predictedHome == predictedAway {
		return odds.ExactScore(odds.Base), nil
	}

	matchup, err := s.games.Matchup(ctx, gameID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to quote game %d: %w", gameID, err)
	}

	winner := homeTeam
	if predictedAway > predictedHome {
		winner = awayTeam
	}
	price, ok := matchup.OddsFor(winner)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s is not playing in game %d", ErrInvalidWager, winner, gameID)
	}
	return odds.ExactScore(price), nil
}

// EditPrediction overwrites the guessed score of a pending prediction within the edit window.
// The stake is neither re-debited nor re-priced.
func (s *predictionService) EditPrediction(ctx context.Context, userID string, predictionID int64, predictedHome, predictedAway int) (*models.ScorePrediction, error) {
	if predictedHome < 0 || predictedAway < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrInvalidWager)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	prediction, err := uow.ScorePredictionRepository().GetByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if prediction == nil || prediction.UserID != userID {
		return nil, fmt.Errorf("%w: prediction %d", ErrWagerNotFound, predictionID)
	}
	if prediction.Status != models.WagerStatusPending {
		return nil, fmt.Errorf("%w: prediction %d is %s", ErrEditWindowClosed, predictionID, prediction.Status)
	}
	if !IsWindowOpen(prediction.CreatedAt, config.Get().PredictionEditFor, s.now()) {
		return nil, fmt.Errorf("%w: prediction %d was submitted at %s", ErrEditWindowClosed, predictionID,
			prediction.CreatedAt.Format(time.RFC3339))
	}

	updated, err := uow.ScorePredictionRepository().UpdatePredictedScores(ctx, predictionID, userID, predictedHome, predictedAway)
	if err != nil {
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: prediction %d was settled", ErrEditWindowClosed, predictionID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	prediction.PredictedHome = predictedHome
	prediction.PredictedAway = predictedAway
	prediction.UpdatedAt = s.now()
	return prediction, nil
}

// ListPredictions returns the user's predictions, newest first
func (s *predictionService) ListPredictions(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	predictions, err := uow.ScorePredictionRepository().GetByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}
