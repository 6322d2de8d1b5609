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

const (
	MinParlayLegs = 2
	// MaxParlayLegs keeps the combined price, and so the potential win, within an int64
	MaxParlayLegs = 10
)

// parlayService implements the ParlayService interface
type parlayService struct {
	uowFactory UnitOfWorkFactory
	feed       GameFeed
	now        func() time.Time
}

// NewParlayService creates a new parlay service
func NewParlayService(uowFactory UnitOfWorkFactory, feed GameFeed) ParlayService {
	return &parlayService{
		uowFactory: uowFactory,
		feed:       feed,
		now:        time.Now,
	}
}

// PlaceParlay records an all-or-nothing wager over two or more games. The combined price is
// the product of the legs and the potential win is fixed at placement.
func (s *parlayService) PlaceParlay(ctx context.Context, userID string, selections []models.ParlaySelection, stake int64) (*models.ParlayBet, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: parlay stake must be positive", ErrInvalidWager)
	}
	if len(selections) < MinParlayLegs {
		return nil, fmt.Errorf("%w: a parlay needs at least %d legs, got %d", ErrInvalidWager, MinParlayLegs, len(selections))
	}
	if len(selections) > MaxParlayLegs {
		return nil, fmt.Errorf("%w: a parlay takes at most %d legs, got %d", ErrInvalidWager, MaxParlayLegs, len(selections))
	}

	cutoff := config.Get().ParlayLegCutoff
	now := s.now()
	seen := make(map[int64]bool, len(selections))
	legs := make([]decimal.Decimal, 0, len(selections))
	for _, sel := range selections {
		if seen[sel.GameID] {
			return nil, fmt.Errorf("%w: game %d appears in more than one leg", ErrInvalidWager, sel.GameID)
		}
		seen[sel.GameID] = true

		if err := checkOdds(sel.Odds); err != nil {
			return nil, err
		}
		result, err := openGame(ctx, s.feed, sel.GameID, cutoff, now)
		if err != nil {
			return nil, err
		}
		if !result.HasTeam(sel.Team) {
			return nil, fmt.Errorf("%w: %s is not playing in game %d", ErrInvalidWager, sel.Team, sel.GameID)
		}
		legs = append(legs, sel.Odds)
	}

	totalOdds := odds.Combine(legs...)
	potentialWin, err := odds.CheckedPayout(stake, totalOdds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWager, err)
	}
	parlay := &models.ParlayBet{
		UserID:       userID,
		Selections:   selections,
		BetAmount:    stake,
		TotalOdds:    totalOdds,
		PotentialWin: potentialWin,
		Status:       models.WagerStatusPending,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ParlayBetRepository().Create(ctx, parlay); err != nil {
		return nil, fmt.Errorf("failed to create parlay: %w", err)
	}

	if _, err := debit(ctx, uow, userID, stake, models.TransactionTypeParlayPlaced, map[string]any{
		"parlay_id":  parlay.ID,
		"legs":       len(selections),
		"total_odds": totalOdds.String(),
	}); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		Kind:   models.WagerKindParlay,
		ID:     parlay.ID,
		UserID: userID,
		Amount: stake,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	observability.GetMetrics().RecordWagerPlaced(string(models.WagerKindParlay))

	log.WithFields(log.Fields{
		"parlayID":     parlay.ID,
		"userID":       userID,
		"legs":         len(selections),
		"stake":        stake,
		"totalOdds":    totalOdds.String(),
		"potentialWin": parlay.PotentialWin,
	}).Info("Parlay placed")
	return parlay, nil
}

// ListParlays returns the user's parlays, newest first
func (s *parlayService) ListParlays(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	parlays, err := uow.ParlayBetRepository().GetByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list parlays: %w", err)
	}
	return parlays, nil
}
