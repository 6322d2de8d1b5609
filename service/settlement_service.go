package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/observability"
	"github.com/Shaxten/nhl-app/odds"

	log "github.com/sirupsen/logrus"
)

// settlementService implements the SettlementService interface
type settlementService struct {
	uowFactory UnitOfWorkFactory
	feed       GameFeed
	eventBus   EventPublisher
	mu         sync.Mutex
	now        func() time.Time
}

// NewSettlementService creates a new settlement service. eventBus receives the
// settlement.completed summary and may be nil.
func NewSettlementService(uowFactory UnitOfWorkFactory, feed GameFeed, eventBus EventPublisher) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		feed:       feed,
		eventBus:   eventBus,
		now:        time.Now,
	}
}

// settlementPass holds the state of one ResolvePending call
type settlementPass struct {
	feed    GameFeed
	report  *models.ResolveReport
	results map[int64]gameLookup
}

type gameLookup struct {
	result *models.GameResult
	err    error
}

// finalResult fetches each game at most once per pass. A game that is not over yet
// returns ErrGameNotFinal.
func (p *settlementPass) finalResult(ctx context.Context, gameID int64) (*models.GameResult, error) {
	lookup, ok := p.results[gameID]
	if !ok {
		result, err := p.feed.FetchResult(ctx, gameID)
		if err == nil && !result.IsFinal() {
			err = fmt.Errorf("game %d is %s: %w", gameID, result.State, ErrGameNotFinal)
		}
		lookup = gameLookup{result: result, err: err}
		p.results[gameID] = lookup
	}
	return lookup.result, lookup.err
}

// ResolvePending settles single bets, then parlays, then predictions. Each wager is flipped
// and paid in its own transaction so one failure never blocks the rest of the pass.
func (s *settlementService) ResolvePending(ctx context.Context) (*models.ResolveReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrSettlementInProgress
	}
	defer s.mu.Unlock()

	pass := &settlementPass{
		feed:    s.feed,
		report:  models.NewResolveReport(s.now()),
		results: make(map[int64]gameLookup),
	}

	if err := s.resolveSingleBets(ctx, pass); err != nil {
		return nil, err
	}
	if err := s.resolveParlays(ctx, pass); err != nil {
		return nil, err
	}
	if err := s.resolvePredictions(ctx, pass); err != nil {
		return nil, err
	}

	report := pass.report
	report.Logf("Bet resolution complete!")
	report.FinishedAt = s.now()

	observability.GetMetrics().RecordSettlementPass(report.FinishedAt.Sub(report.StartedAt))
	if s.eventBus != nil {
		s.eventBus.Publish(events.NewSettlementCompletedEvent(report))
	}

	log.WithFields(log.Fields{
		"settled":   report.Settled,
		"refunded":  report.Refunded,
		"deferred":  report.Deferred,
		"conflicts": report.Conflicts,
		"failures":  report.Failures,
		"paidOut":   report.PaidOut,
	}).Info("Settlement pass complete")
	return report, nil
}

func (s *settlementService) resolveSingleBets(ctx context.Context, pass *settlementPass) error {
	bets, err := loadPending(ctx, s.uowFactory, func(uow UnitOfWork) ([]*models.SingleBet, error) {
		return uow.SingleBetRepository().GetPending(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to load pending bets: %w", err)
	}

	report := pass.report
	if len(bets) == 0 {
		report.Logf("No pending bets to resolve")
		return nil
	}
	report.Logf("Found %d pending bets", len(bets))

	gameIDs := make([]int64, 0)
	byGame := make(map[int64][]*models.SingleBet)
	for _, bet := range bets {
		if _, ok := byGame[bet.GameID]; !ok {
			gameIDs = append(gameIDs, bet.GameID)
		}
		byGame[bet.GameID] = append(byGame[bet.GameID], bet)
	}

	for _, gameID := range gameIDs {
		gameBets := byGame[gameID]

		result, err := pass.finalResult(ctx, gameID)
		if err != nil {
			deferGame(report, gameID, len(gameBets), err)
			continue
		}

		if result.IsTie() {
			report.Logf("Game %d: Tie - refunding all bets", gameID)
			for _, bet := range gameBets {
				s.refundSingleBet(ctx, report, bet)
			}
			continue
		}

		winner := result.Winner()
		report.Logf("Game %d: %s %d @ %s %d - Winner: %s",
			gameID, result.AwayTeam, result.AwayScore, result.HomeTeam, result.HomeScore, winner)
		for _, bet := range gameBets {
			s.settleSingleBet(ctx, report, bet, bet.TeamChoice == winner)
		}
	}
	return nil
}

func (s *settlementService) refundSingleBet(ctx context.Context, report *models.ResolveReport, bet *models.SingleBet) {
	payout, err := s.transition(ctx, bet.Ref(), bet.UserID, models.WagerStatusRefunded, func(uow UnitOfWork) (int64, error) {
		_, err := credit(ctx, uow, bet.UserID, bet.Amount, models.TransactionTypeBetRefund, map[string]any{
			"bet_id":  bet.ID,
			"game_id": bet.GameID,
		})
		return bet.Amount, err
	})
	record(report, bet.Ref(), models.WagerStatusRefunded, payout, err,
		fmt.Sprintf("  User %s: REFUNDED %d", bet.UserID, bet.Amount))
}

func (s *settlementService) settleSingleBet(ctx context.Context, report *models.ResolveReport, bet *models.SingleBet, won bool) {
	if !won {
		_, err := s.transition(ctx, bet.Ref(), bet.UserID, models.WagerStatusLost, func(uow UnitOfWork) (int64, error) {
			return 0, uow.AccountRepository().ApplyStats(ctx, bet.UserID, models.StatDelta{
				BetsLost:      1,
				TotalWinnings: -bet.Amount,
			})
		})
		record(report, bet.Ref(), models.WagerStatusLost, 0, err,
			fmt.Sprintf("  User %s: LOST %d", bet.UserID, bet.Amount))
		return
	}

	winnings := odds.Payout(bet.Amount, bet.Odds)
	payout, err := s.transition(ctx, bet.Ref(), bet.UserID, models.WagerStatusWon, func(uow UnitOfWork) (int64, error) {
		if _, err := credit(ctx, uow, bet.UserID, winnings, models.TransactionTypeBetWon, map[string]any{
			"bet_id":  bet.ID,
			"game_id": bet.GameID,
			"odds":    bet.Odds.String(),
		}); err != nil {
			return 0, err
		}
		if err := uow.AccountRepository().ApplyStats(ctx, bet.UserID, models.StatDelta{
			BetsWon:       1,
			TotalWinnings: winnings - bet.Amount,
		}); err != nil {
			return 0, err
		}
		return winnings, nil
	})
	record(report, bet.Ref(), models.WagerStatusWon, payout, err,
		fmt.Sprintf("  User %s: WON %d (paid %d)", bet.UserID, bet.Amount, winnings))
}

func (s *settlementService) resolveParlays(ctx context.Context, pass *settlementPass) error {
	parlays, err := loadPending(ctx, s.uowFactory, func(uow UnitOfWork) ([]*models.ParlayBet, error) {
		return uow.ParlayBetRepository().GetPending(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to load pending parlays: %w", err)
	}

	report := pass.report
	if len(parlays) == 0 {
		return nil
	}
	report.Logf("Found %d pending parlays", len(parlays))

	for _, parlay := range parlays {
		won, err := parlayOutcome(ctx, pass, parlay)
		if err != nil {
			report.Deferred++
			report.Logf("Parlay %d: waiting (%v)", parlay.ID, err)
			continue
		}

		if !won {
			_, err := s.transition(ctx, parlay.Ref(), parlay.UserID, models.WagerStatusLost, func(UnitOfWork) (int64, error) {
				return 0, nil
			})
			record(report, parlay.Ref(), models.WagerStatusLost, 0, err,
				fmt.Sprintf("Parlay %d: User %s LOST %d", parlay.ID, parlay.UserID, parlay.BetAmount))
			continue
		}

		payout, err := s.transition(ctx, parlay.Ref(), parlay.UserID, models.WagerStatusWon, func(uow UnitOfWork) (int64, error) {
			_, err := credit(ctx, uow, parlay.UserID, parlay.PotentialWin, models.TransactionTypeParlayWon, map[string]any{
				"parlay_id":  parlay.ID,
				"total_odds": parlay.TotalOdds.String(),
			})
			return parlay.PotentialWin, err
		})
		record(report, parlay.Ref(), models.WagerStatusWon, payout, err,
			fmt.Sprintf("Parlay %d: User %s WON %d (paid %d)", parlay.ID, parlay.UserID, parlay.BetAmount, parlay.PotentialWin))
	}
	return nil
}

// parlayOutcome returns whether every leg's team won. Any leg without a final result
// returns that leg's error and leaves the parlay pending. A tied leg loses.
func parlayOutcome(ctx context.Context, pass *settlementPass, parlay *models.ParlayBet) (bool, error) {
	won := true
	for _, sel := range parlay.Selections {
		result, err := pass.finalResult(ctx, sel.GameID)
		if err != nil {
			return false, err
		}
		if result.Winner() != sel.Team {
			won = false
		}
	}
	return won, nil
}

func (s *settlementService) resolvePredictions(ctx context.Context, pass *settlementPass) error {
	predictions, err := loadPending(ctx, s.uowFactory, func(uow UnitOfWork) ([]*models.ScorePrediction, error) {
		return uow.ScorePredictionRepository().GetPending(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to load pending predictions: %w", err)
	}

	report := pass.report
	if len(predictions) == 0 {
		return nil
	}
	report.Logf("Found %d pending predictions", len(predictions))

	for _, prediction := range predictions {
		result, err := pass.finalResult(ctx, prediction.GameID)
		if err != nil {
			report.Deferred++
			report.Logf("Prediction %d: waiting (%v)", prediction.ID, err)
			continue
		}

		correct := prediction.Matches(result.HomeScore, result.AwayScore)
		next := models.WagerStatusIncorrect
		if correct {
			next = models.WagerStatusCorrect
		}

		var winnings int64
		if correct && prediction.IsStaked() {
			winnings = odds.Payout(prediction.ParlayAmount, *prediction.ParlayOdds)
		}

		payout, err := s.transition(ctx, prediction.Ref(), prediction.UserID, next, func(uow UnitOfWork) (int64, error) {
			if err := uow.ScorePredictionRepository().RecordActualScores(ctx, prediction.ID, result.HomeScore, result.AwayScore); err != nil {
				return 0, err
			}
			if winnings == 0 {
				return 0, nil
			}
			_, err := credit(ctx, uow, prediction.UserID, winnings, models.TransactionTypePredictionWon, map[string]any{
				"prediction_id": prediction.ID,
				"game_id":       prediction.GameID,
				"odds":          prediction.ParlayOdds.String(),
			})
			return winnings, err
		})
		record(report, prediction.Ref(), next, payout, err,
			fmt.Sprintf("Prediction %d: User %s predicted %d-%d, final %d-%d - %s",
				prediction.ID, prediction.UserID, prediction.PredictedHome, prediction.PredictedAway,
				result.HomeScore, result.AwayScore, next))
	}
	return nil
}

// transition flips ref out of pending and runs apply in the same transaction. The returned
// amount is what apply credited to the user.
func (s *settlementService) transition(ctx context.Context, ref models.WagerRef, userID string, next models.WagerStatus, apply func(uow UnitOfWork) (int64, error)) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var payout int64
	err := uow.CompareAndTransition(ctx, ref, models.WagerStatusPending, next, func() error {
		amount, err := apply(uow)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStatUpdate, err)
		}
		payout = amount

		uow.EventBus().Publish(events.WagerSettledEvent{
			Kind:   ref.Kind,
			ID:     ref.ID,
			UserID: userID,
			Status: next,
			Payout: amount,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return payout, nil
}

// record folds the outcome of one transition into the report
func record(report *models.ResolveReport, ref models.WagerRef, next models.WagerStatus, payout int64, err error, line string) {
	metrics := observability.GetMetrics()
	switch {
	case err == nil:
		if next == models.WagerStatusRefunded {
			report.Refunded++
		} else {
			report.Settled++
		}
		report.PaidOut += payout
		report.Logf("%s", line)
		metrics.RecordWagerSettled(string(ref.Kind), string(next))

	case errors.Is(err, ErrConcurrentSettlement):
		report.Conflicts++
		report.Logf("  %s: already processed", ref)
		metrics.RecordSettlementConflict(string(ref.Kind))
		log.WithField("wager", ref.String()).Info("Wager already processed")

	default:
		report.Failures++
		report.Logf("  %s: failed, left pending: %v", ref, err)
		log.WithError(err).WithField("wager", ref.String()).Error("Failed to settle wager")
	}
}

// deferGame logs why the bets on a game were skipped this pass
func deferGame(report *models.ResolveReport, gameID int64, count int, err error) {
	report.Deferred += count
	if errors.Is(err, ErrGameNotFinal) {
		report.Logf("Game %d: Not finished yet", gameID)
		return
	}
	report.Logf("Error processing game %d: %v", gameID, err)
	log.WithError(err).WithField("gameID", gameID).Warn("Deferring game after upstream failure")
}

// loadPending reads a list of pending wagers in a short-lived unit of work
func loadPending[T any](ctx context.Context, factory UnitOfWorkFactory, read func(uow UnitOfWork) ([]T, error)) ([]T, error) {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return read(uow)
}
