package nhl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shaxten/nhl-app/cache"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const finalLanding = `{
	"id": 2024020500,
	"season": 20242025,
	"gameState": "OFF",
	"startTimeUTC": "2025-01-10T00:00:00Z",
	"homeTeam": {"id": 10, "abbrev": "TOR", "score": 4},
	"awayTeam": {"id": 8, "abbrev": "MTL", "score": 2}
}`

type fakeAPI struct {
	server *httptest.Server
	hits   map[string]*int32
	routes map[string]func(w http.ResponseWriter)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		hits:   map[string]*int32{},
		routes: map[string]func(w http.ResponseWriter){},
	}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := api.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(api.hits[r.URL.Path], 1)
		route(w)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) handle(path string, status int, body string) {
	a.hits[path] = new(int32)
	a.routes[path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}
}

func (a *fakeAPI) count(path string) int {
	return int(atomic.LoadInt32(a.hits[path]))
}

func newTestClient(api *fakeAPI) *Client {
	return NewClient(Options{
		BaseURL:      api.server.URL,
		Timeout:      time.Second,
		ResultTTL:    time.Hour,
		StandingsTTL: time.Hour,
		ScheduleTTL:  time.Minute,
	}, Caches{
		Results:   cache.NewMemoryCacheWithOptions[models.GameResult](0, time.Now),
		Standings: cache.NewMemoryCacheWithOptions[[]models.Standing](0, time.Now),
		Schedule:  cache.NewMemoryCacheWithOptions[[]models.ScheduledGame](0, time.Now),
	})
}

func TestFetchResult_Final(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/gamecenter/2024020500/landing", http.StatusOK, finalLanding)
	client := newTestClient(api)

	result, err := client.FetchResult(context.Background(), 2024020500)
	require.NoError(t, err)

	assert.Equal(t, int64(2024020500), result.GameID)
	assert.True(t, result.IsFinal())
	assert.Equal(t, "TOR", result.HomeTeam)
	assert.Equal(t, "MTL", result.AwayTeam)
	assert.Equal(t, 4, result.HomeScore)
	assert.Equal(t, 2, result.AwayScore)
	assert.Equal(t, "TOR", result.Winner())
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), result.StartTime)
}

func TestFetchResult_FinalIsCachedUntilCleared(t *testing.T) {
	api := newFakeAPI(t)
	path := "/gamecenter/2024020500/landing"
	api.handle(path, http.StatusOK, finalLanding)
	client := newTestClient(api)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.FetchResult(ctx, 2024020500)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.count(path))

	require.NoError(t, client.ClearCache(ctx))
	_, err := client.FetchResult(ctx, 2024020500)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count(path))
}

func TestFetchResult_NonFinalIsNeverCached(t *testing.T) {
	api := newFakeAPI(t)
	path := "/gamecenter/2024020501/landing"
	api.handle(path, http.StatusOK, `{
		"id": 2024020501,
		"gameState": "LIVE",
		"startTimeUTC": "2025-01-10T00:30:00Z",
		"homeTeam": {"abbrev": "EDM", "score": 1},
		"awayTeam": {"abbrev": "CGY", "score": 1}
	}`)
	client := newTestClient(api)
	ctx := context.Background()

	result, err := client.FetchResult(ctx, 2024020501)
	require.NoError(t, err)
	assert.False(t, result.IsFinal())

	_, err = client.FetchResult(ctx, 2024020501)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count(path))
}

func TestFetchResult_GameStates(t *testing.T) {
	tests := []struct {
		state string
		final bool
	}{
		{"OFF", true},
		{"FINAL", true},
		{"FUT", false},
		{"PRE", false},
		{"LIVE", false},
		{"CRIT", false},
		{"POSTPONED", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			api := newFakeAPI(t)
			api.handle("/gamecenter/1/landing", http.StatusOK, fmt.Sprintf(`{
				"id": 1,
				"gameState": %q,
				"startTimeUTC": "2025-01-10T00:00:00Z",
				"homeTeam": {"abbrev": "BOS", "score": 3},
				"awayTeam": {"abbrev": "NYR", "score": 2}
			}`, tt.state))

			result, err := newTestClient(api).FetchResult(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.final, result.IsFinal())
		})
	}
}

func TestFetchResult_PreGameWithoutScores(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/gamecenter/7/landing", http.StatusOK, `{
		"id": 7,
		"gameState": "FUT",
		"startTimeUTC": "2025-01-11T00:00:00Z",
		"homeTeam": {"abbrev": "VAN"},
		"awayTeam": {"abbrev": "SEA"}
	}`)

	result, err := newTestClient(api).FetchResult(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, result.HomeScore)
	assert.Equal(t, 0, result.AwayScore)
}

func TestFetchResult_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{}`},
		{"not found", http.StatusNotFound, `{}`},
		{"not json", http.StatusOK, `<html>rate limited</html>`},
		{"missing state", http.StatusOK, `{"id": 5, "startTimeUTC": "2025-01-10T00:00:00Z", "homeTeam": {"abbrev": "TOR", "score": 1}, "awayTeam": {"abbrev": "MTL", "score": 0}}`},
		{"missing home team", http.StatusOK, `{"id": 5, "gameState": "OFF", "startTimeUTC": "2025-01-10T00:00:00Z", "awayTeam": {"abbrev": "MTL", "score": 0}}`},
		{"final without score", http.StatusOK, `{"id": 5, "gameState": "FINAL", "startTimeUTC": "2025-01-10T00:00:00Z", "homeTeam": {"abbrev": "TOR"}, "awayTeam": {"abbrev": "MTL", "score": 0}}`},
		{"wrong game", http.StatusOK, `{"id": 6, "gameState": "OFF", "startTimeUTC": "2025-01-10T00:00:00Z", "homeTeam": {"abbrev": "TOR", "score": 1}, "awayTeam": {"abbrev": "MTL", "score": 0}}`},
		{"bad start time", http.StatusOK, `{"id": 5, "gameState": "OFF", "startTimeUTC": "tonight", "homeTeam": {"abbrev": "TOR", "score": 1}, "awayTeam": {"abbrev": "MTL", "score": 0}}`},
		{"score is a string", http.StatusOK, `{"id": 5, "gameState": "OFF", "startTimeUTC": "2025-01-10T00:00:00Z", "homeTeam": {"abbrev": "TOR", "score": "1"}, "awayTeam": {"abbrev": "MTL", "score": 0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.handle("/gamecenter/5/landing", tt.status, tt.body)

			result, err := newTestClient(api).FetchResult(context.Background(), 5)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, service.ErrUpstreamFetch)
		})
	}
}

func TestFetchResult_TransportError(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(api)
	api.server.Close()

	_, err := client.FetchResult(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrUpstreamFetch)
}

func TestFetchStandings(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/standings/now", http.StatusOK, `{
		"wildCardIndicator": true,
		"standings": [
			{"teamAbbrev": {"default": "WPG"}, "teamName": {"default": "Winnipeg Jets"}, "divisionName": "Central", "wins": 30, "losses": 10, "otLosses": 3, "points": 63, "gamesPlayed": 43},
			{"teamAbbrev": {"default": "TOR"}, "teamName": {"default": "Toronto Maple Leafs"}, "divisionName": "Atlantic", "wins": 27, "losses": 14, "otLosses": 2, "points": 56, "gamesPlayed": 43}
		]
	}`)
	client := newTestClient(api)
	ctx := context.Background()

	standings, err := client.FetchStandings(ctx)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "WPG", standings[0].TeamAbbrev)
	assert.Equal(t, "Winnipeg Jets", standings[0].TeamName)
	assert.Equal(t, 63, standings[0].Points)
	assert.Equal(t, "27-14-2", standings[1].Record())

	_, err = client.FetchStandings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("/standings/now"), "standings should be served from cache")
}

func TestFetchStandings_MissingAbbrev(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/standings/now", http.StatusOK, `{"standings": [{"teamName": {"default": "Nobody"}, "points": 10}]}`)

	_, err := newTestClient(api).FetchStandings(context.Background())
	assert.ErrorIs(t, err, service.ErrUpstreamFetch)
}

func TestFetchSchedule(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/schedule/2025-01-10", http.StatusOK, `{
		"gameWeek": [
			{"date": "2025-01-10", "games": [
				{"id": 2024020600, "startTimeUTC": "2025-01-11T00:00:00Z", "gameState": "FUT", "homeTeam": {"abbrev": "TOR"}, "awayTeam": {"abbrev": "MTL"}},
				{"id": 2024020601, "startTimeUTC": "2025-01-11T03:00:00Z", "gameState": "FUT", "homeTeam": {"abbrev": "VAN"}, "awayTeam": {"abbrev": "EDM"}}
			]},
			{"date": "2025-01-11", "games": [
				{"id": 2024020610, "startTimeUTC": "2025-01-12T00:00:00Z", "gameState": "FUT", "homeTeam": {"abbrev": "BOS"}, "awayTeam": {"abbrev": "NYR"}}
			]}
		]
	}`)
	client := newTestClient(api)
	day := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)

	games, err := client.FetchSchedule(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, int64(2024020600), games[0].GameID)
	assert.Equal(t, "TOR", games[0].HomeTeam)
	assert.Equal(t, "MTL", games[0].AwayTeam)
	assert.Equal(t, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), games[0].StartTime)
	assert.Equal(t, models.GameState("FUT"), games[0].State)
}

func TestFetchSchedule_EmptyWeek(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("/schedule/2025-07-01", http.StatusOK, `{"gameWeek": []}`)

	games, err := newTestClient(api).FetchSchedule(context.Background(), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestFetchSchedule_UpstreamErrorIsNotCached(t *testing.T) {
	api := newFakeAPI(t)
	path := "/schedule/2025-01-10"
	api.handle(path, http.StatusBadGateway, `{}`)
	client := newTestClient(api)
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := client.FetchSchedule(context.Background(), day)
	assert.ErrorIs(t, err, service.ErrUpstreamFetch)
	_, err = client.FetchSchedule(context.Background(), day)
	assert.ErrorIs(t, err, service.ErrUpstreamFetch)
	assert.Equal(t, 2, api.count(path))
}
