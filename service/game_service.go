package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaxten/nhl-app/config"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/odds"

	log "github.com/sirupsen/logrus"
)

// gameService implements the GameService interface
type gameService struct {
	feed GameFeed
}

// NewGameService creates a new game service
func NewGameService(feed GameFeed) GameService {
	return &gameService{feed: feed}
}

// UpcomingGames returns today's schedule with odds quoted from the standings. Games whose
// single-bet window has already closed are left out.
func (s *gameService) UpcomingGames(ctx context.Context, now time.Time) ([]*models.Matchup, error) {
	schedule, err := s.feed.FetchSchedule(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	standings := s.standingsIndex(ctx)
	cutoff := config.Get().SingleBetCutoff

	matchups := make([]*models.Matchup, 0, len(schedule))
	for _, game := range schedule {
		if game.State.IsFinal() || now.After(game.StartTime.Add(cutoff)) {
			continue
		}
		matchups = append(matchups, quote(game.GameID, game.HomeTeam, game.AwayTeam, game.StartTime, standings))
	}
	return matchups, nil
}

// Matchup quotes a single game from its current result and the standings
func (s *gameService) Matchup(ctx context.Context, gameID int64) (*models.Matchup, error) {
	result, err := s.feed.FetchResult(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game %d: %w", gameID, err)
	}
	return quote(result.GameID, result.HomeTeam, result.AwayTeam, result.StartTime, s.standingsIndex(ctx)), nil
}

// standingsIndex maps team abbreviations to standings. Missing standings are not fatal:
// every price falls back to the base odds.
func (s *gameService) standingsIndex(ctx context.Context) map[string]models.Standing {
	standings, err := s.feed.FetchStandings(ctx)
	if err != nil {
		log.WithError(err).Warn("Standings unavailable, quoting base odds")
		return map[string]models.Standing{}
	}

	index := make(map[string]models.Standing, len(standings))
	for _, standing := range standings {
		index[standing.TeamAbbrev] = standing
	}
	return index
}

func quote(gameID int64, homeTeam, awayTeam string, startTime time.Time, standings map[string]models.Standing) *models.Matchup {
	home := standings[homeTeam]
	away := standings[awayTeam]

	return &models.Matchup{
		GameID:     gameID,
		HomeTeam:   homeTeam,
		AwayTeam:   awayTeam,
		StartTime:  startTime,
		HomeRecord: home.Record(),
		AwayRecord: away.Record(),
		HomePoints: home.Points,
		AwayPoints: away.Points,
		HomeOdds:   odds.Compute(home.Points, away.Points),
		AwayOdds:   odds.Compute(away.Points, home.Points),
	}
}
