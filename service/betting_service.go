package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaxten/nhl-app/config"
	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/observability"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// bettingService implements the BettingService interface
type bettingService struct {
	uowFactory UnitOfWorkFactory
	feed       GameFeed
	now        func() time.Time
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, feed GameFeed) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		feed:       feed,
		now:        time.Now,
	}
}

// PlaceBet records a pending moneyline bet and takes the stake in the same transaction
func (s *bettingService) PlaceBet(ctx context.Context, userID string, gameID int64, teamChoice string, amount int64, homeTeam, awayTeam string, odds decimal.Decimal) (*models.SingleBet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bet amount must be positive", ErrInvalidWager)
	}
	if teamChoice != homeTeam && teamChoice != awayTeam {
		return nil, fmt.Errorf("%w: %s is not playing in game %d", ErrInvalidWager, teamChoice, gameID)
	}
	if err := checkOdds(odds); err != nil {
		return nil, err
	}

	result, err := openGame(ctx, s.feed, gameID, config.Get().SingleBetCutoff, s.now())
	if err != nil {
		return nil, err
	}
	if err := checkTeams(result, homeTeam, awayTeam); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	startsAt := result.StartTime
	bet := &models.SingleBet{
		UserID:     userID,
		GameID:     gameID,
		TeamChoice: teamChoice,
		Amount:     amount,
		Odds:       odds,
		HomeTeam:   homeTeam,
		AwayTeam:   awayTeam,
		StartsAt:   &startsAt,
		Status:     models.WagerStatusPending,
	}
	if err := uow.SingleBetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if _, err := debit(ctx, uow, userID, amount, models.TransactionTypeBetPlaced, map[string]any{
		"bet_id":  bet.ID,
		"game_id": gameID,
		"team":    teamChoice,
		"odds":    odds.String(),
	}); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		Kind:   models.WagerKindSingleBet,
		ID:     bet.ID,
		UserID: userID,
		Amount: amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	observability.GetMetrics().RecordWagerPlaced(string(models.WagerKindSingleBet))

	log.WithFields(log.Fields{
		"betID":  bet.ID,
		"userID": userID,
		"gameID": gameID,
		"team":   teamChoice,
		"amount": amount,
		"odds":   odds.String(),
	}).Info("Bet placed")
	return bet, nil
}

// CancelBet deletes a pending bet and returns the stake. Only possible until the cancel
// cutoff after puck drop.
func (s *bettingService) CancelBet(ctx context.Context, userID string, betID int64) (*models.SingleBet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.SingleBetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil || bet.UserID != userID {
		return nil, fmt.Errorf("%w: bet %d", ErrWagerNotFound, betID)
	}
	if bet.Status != models.WagerStatusPending {
		return nil, fmt.Errorf("%w: bet %d is already %s", ErrConcurrentSettlement, betID, bet.Status)
	}

	start, err := s.startOf(ctx, bet)
	if err != nil {
		return nil, err
	}
	if !IsWindowOpen(start, config.Get().CancelCutoff, s.now()) {
		return nil, fmt.Errorf("%w: bet %d can no longer be cancelled", ErrBettingClosed, betID)
	}

	deleted, err := uow.SingleBetRepository().DeletePending(ctx, betID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete bet: %w", err)
	}
	if deleted == nil {
		// Settled between the read and the delete
		return nil, fmt.Errorf("%w: bet %d", ErrConcurrentSettlement, betID)
	}

	if _, err := credit(ctx, uow, userID, deleted.Amount, models.TransactionTypeBetCancelled, map[string]any{
		"bet_id":  deleted.ID,
		"game_id": deleted.GameID,
	}); err != nil {
		return nil, fmt.Errorf("failed to refund stake: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":  betID,
		"userID": userID,
		"amount": deleted.Amount,
	}).Info("Bet cancelled")
	return deleted, nil
}

// startOf returns the scheduled start snapshotted on the bet, asking the oracle for older rows
func (s *bettingService) startOf(ctx context.Context, bet *models.SingleBet) (time.Time, error) {
	if bet.StartsAt != nil {
		return *bet.StartsAt, nil
	}
	result, err := s.feed.FetchResult(ctx, bet.GameID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch game %d: %w", bet.GameID, err)
	}
	return result.StartTime, nil
}

// ListBets returns the user's bets, newest first
func (s *bettingService) ListBets(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.SingleBetRepository().GetByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}
