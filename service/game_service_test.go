package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/odds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStandings = []models.Standing{
	{TeamAbbrev: "TOR", Wins: 30, Losses: 10, OTLosses: 5, Points: 65},
	{TeamAbbrev: "MTL", Wins: 20, Losses: 20, OTLosses: 5, Points: 45},
}

func TestGameService_UpcomingGames(t *testing.T) {
	ctx := context.Background()
	now := puckDrop.Add(40 * time.Minute)
	feed := new(MockGameFeed)

	feed.On("FetchSchedule", ctx, now).Return([]models.ScheduledGame{
		{GameID: 1, HomeTeam: "TOR", AwayTeam: "MTL", StartTime: puckDrop.Add(2 * time.Hour), State: "FUT"},
		{GameID: 2, HomeTeam: "BOS", AwayTeam: "NYR", StartTime: puckDrop, State: "LIVE"},
		{GameID: 3, HomeTeam: "EDM", AwayTeam: "CGY", StartTime: puckDrop.Add(-4 * time.Hour), State: "OFF"},
	}, nil)
	feed.On("FetchStandings", ctx).Return(testStandings, nil)
	svc := NewGameService(feed)

	games, err := svc.UpcomingGames(ctx, now)

	require.NoError(t, err)
	require.Len(t, games, 1)
	game := games[0]
	assert.Equal(t, int64(1), game.GameID)
	assert.Equal(t, "30-10-5", game.HomeRecord)
	assert.Equal(t, "20-20-5", game.AwayRecord)
	assert.True(t, game.HomeOdds.Equal(dec("1.60")), game.HomeOdds.String())
	assert.True(t, game.AwayOdds.Equal(dec("2.40")), game.AwayOdds.String())
}

func TestGameService_UpcomingGames_StandingsDownQuotesBase(t *testing.T) {
	ctx := context.Background()
	feed := new(MockGameFeed)
	feed.On("FetchSchedule", ctx, puckDrop).Return([]models.ScheduledGame{
		{GameID: 1, HomeTeam: "TOR", AwayTeam: "MTL", StartTime: puckDrop.Add(time.Hour), State: "FUT"},
	}, nil)
	feed.On("FetchStandings", ctx).Return(nil, ErrUpstreamFetch)
	svc := NewGameService(feed)

	games, err := svc.UpcomingGames(ctx, puckDrop)

	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.True(t, games[0].HomeOdds.Equal(odds.Base))
	assert.True(t, games[0].AwayOdds.Equal(odds.Base))
}

func TestGameService_UpcomingGames_ScheduleFailure(t *testing.T) {
	ctx := context.Background()
	feed := new(MockGameFeed)
	feed.On("FetchSchedule", ctx, mock.Anything).Return(nil, errors.Join(ErrUpstreamFetch, errors.New("timeout")))
	svc := NewGameService(feed)

	_, err := svc.UpcomingGames(ctx, puckDrop)

	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestGameService_Matchup(t *testing.T) {
	ctx := context.Background()
	feed := new(MockGameFeed)
	feed.On("FetchResult", ctx, int64(1)).Return(scheduledGame(1, "MTL", "TOR"), nil)
	feed.On("FetchStandings", ctx).Return(testStandings, nil)
	svc := NewGameService(feed)

	matchup, err := svc.Matchup(ctx, 1)

	require.NoError(t, err)
	price, ok := matchup.OddsFor("MTL")
	require.True(t, ok)
	assert.True(t, price.Equal(dec("2.40")))
	_, ok = matchup.OddsFor("BOS")
	assert.False(t, ok)
}
