package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAdminToken = "s3cret"

type testServer struct {
	accounts    *mockAccountService
	games       *service.MockGameService
	betting     *mockBettingService
	parlays     *mockParlayService
	predictions *mockPredictionService
	settlement  *mockSettlementService
	leaderboard *mockLeaderboardService
	feed        *service.MockGameFeed
	db          *mockPinger
	handler     http.Handler
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		accounts:    new(mockAccountService),
		games:       new(service.MockGameService),
		betting:     new(mockBettingService),
		parlays:     new(mockParlayService),
		predictions: new(mockPredictionService),
		settlement:  new(mockSettlementService),
		leaderboard: new(mockLeaderboardService),
		feed:        new(service.MockGameFeed),
		db:          new(mockPinger),
	}
	server := NewServer(Services{
		Accounts:    ts.accounts,
		Games:       ts.games,
		Betting:     ts.betting,
		Parlays:     ts.parlays,
		Predictions: ts.predictions,
		Settlement:  ts.settlement,
		Leaderboard: ts.leaderboard,
		Feed:        ts.feed,
		DB:          ts.db,
	}, testAdminToken)
	ts.handler = server.Router()

	t.Cleanup(func() {
		mock.AssertExpectationsForObjects(t, ts.accounts, ts.games, ts.betting, ts.parlays,
			ts.predictions, ts.settlement, ts.leaderboard, ts.feed, ts.db)
	})
	return ts
}

// signedIn expects the first-use sign-up hook for userID
func (ts *testServer) signedIn(userID string) {
	ts.accounts.On("SignUp", mock.Anything, userID, "").
		Return(&models.Account{UserID: userID, Currency: 1000}, nil).Once()
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func asUser(userID string) map[string]string {
	return map[string]string{headerUserID: userID}
}

func asAdmin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testAdminToken}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func torontoMontreal() *models.Matchup {
	return &models.Matchup{
		GameID:   42,
		HomeTeam: "TOR",
		AwayTeam: "MTL",
		HomeOdds: decimal.RequireFromString("1.60"),
		AwayOdds: decimal.RequireFromString("2.40"),
	}
}

func TestHealth(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.On("Ping", mock.Anything).Return(nil).Once()

		rec := ts.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(headerRequestID))
	})

	t.Run("database down", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

		rec := ts.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequireUser(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(http.MethodGet, "/api/bets", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("first call opens the account with the proxy email", func(t *testing.T) {
		ts := newTestServer(t)
		ts.accounts.On("SignUp", mock.Anything, "user-1", "jane@example.com").
			Return(&models.Account{UserID: "user-1"}, nil).Once()
		ts.betting.On("ListBets", mock.Anything, "user-1", 0).Return([]*models.SingleBet{}, nil).Once()

		rec := ts.do(http.MethodGet, "/api/bets", "", map[string]string{
			headerUserID:    "user-1",
			headerUserEmail: "jane@example.com",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPlaceBet(t *testing.T) {
	t.Run("odds are quoted server side", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()
		ts.betting.On("PlaceBet", mock.Anything, "user-1", int64(42), "MTL", int64(100), "TOR", "MTL",
			decimal.RequireFromString("2.40")).
			Return(&models.SingleBet{ID: 7, UserID: "user-1", GameID: 42, TeamChoice: "MTL", Amount: 100}, nil).Once()

		rec := ts.do(http.MethodPost, "/api/bets", `{"game_id":42,"team":"MTL","amount":100}`, asUser("user-1"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		bet := decodeBody[models.SingleBet](t, rec)
		assert.Equal(t, int64(7), bet.ID)
	})

	t.Run("team not in the game", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()

		rec := ts.do(http.MethodPost, "/api/bets", `{"game_id":42,"team":"BOS","amount":100}`, asUser("user-1"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")

		rec := ts.do(http.MethodPost, "/api/bets", `{"game_id":42,"team":"TOR","amount":0}`, asUser("user-1"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[ErrorResponse](t, rec)
		assert.Contains(t, body.Details, "placeBetRequest.Amount")
	})

	t.Run("client odds are rejected as unknown", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")

		rec := ts.do(http.MethodPost, "/api/bets", `{"game_id":42,"team":"TOR","amount":10,"odds":"5.00"}`, asUser("user-1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()
		ts.betting.On("PlaceBet", mock.Anything, "user-1", int64(42), "TOR", int64(5000), "TOR", "MTL", mock.Anything).
			Return(nil, fmt.Errorf("failed to debit: %w", service.ErrInsufficientFunds)).Once()

		rec := ts.do(http.MethodPost, "/api/bets", `{"game_id":42,"team":"TOR","amount":5000}`, asUser("user-1"))
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})
}

func TestCancelBet(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.betting.On("CancelBet", mock.Anything, "user-1", int64(9)).Return(nil, service.ErrWagerNotFound).Once()

		rec := ts.do(http.MethodDelete, "/api/bets/9", "", asUser("user-1"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")

		rec := ts.do(http.MethodDelete, "/api/bets/abc", "", asUser("user-1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPlaceParlay(t *testing.T) {
	ts := newTestServer(t)
	ts.signedIn("user-1")
	ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()
	ts.games.On("Matchup", mock.Anything, int64(43)).Return(&models.Matchup{
		GameID: 43, HomeTeam: "BOS", AwayTeam: "NYR",
		HomeOdds: decimal.RequireFromString("2.00"), AwayOdds: decimal.RequireFromString("2.00"),
	}, nil).Once()

	expected := []models.ParlaySelection{
		{GameID: 42, Team: "TOR", Odds: decimal.RequireFromString("1.60")},
		{GameID: 43, Team: "BOS", Odds: decimal.RequireFromString("2.00")},
	}
	ts.parlays.On("PlaceParlay", mock.Anything, "user-1", expected, int64(100)).
		Return(&models.ParlayBet{ID: 3, PotentialWin: 320}, nil).Once()

	rec := ts.do(http.MethodPost, "/api/parlays",
		`{"stake":100,"legs":[{"game_id":42,"team":"TOR"},{"game_id":43,"team":"BOS"}]}`, asUser("user-1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(320), decodeBody[models.ParlayBet](t, rec).PotentialWin)
}

func TestPlaceParlay_TooManyLegs(t *testing.T) {
	ts := newTestServer(t)
	ts.signedIn("user-1")

	legs := make([]string, service.MaxParlayLegs+1)
	for i := range legs {
		legs[i] = fmt.Sprintf(`{"game_id":%d,"team":"TOR"}`, i+1)
	}
	rec := ts.do(http.MethodPost, "/api/parlays",
		`{"stake":100,"legs":[`+strings.Join(legs, ",")+`]}`, asUser("user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.parlays.AssertNotCalled(t, "PlaceParlay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPredictions(t *testing.T) {
	t.Run("submit uses the oracle's teams", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()
		ts.predictions.On("SubmitPrediction", mock.Anything, "user-1", int64(42), "TOR", "MTL", 0, 2, int64(0)).
			Return(&models.ScorePrediction{ID: 5}, nil).Once()

		rec := ts.do(http.MethodPost, "/api/predictions", `{"game_id":42,"home_score":0,"away_score":2}`, asUser("user-1"))
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("scores are required", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")

		rec := ts.do(http.MethodPost, "/api/predictions", `{"game_id":42,"away_score":2}`, asUser("user-1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.games.On("Matchup", mock.Anything, int64(42)).Return(torontoMontreal(), nil).Once()
		ts.predictions.On("SubmitPrediction", mock.Anything, "user-1", int64(42), "TOR", "MTL", 3, 2, int64(0)).
			Return(nil, service.ErrDuplicatePrediction).Once()

		rec := ts.do(http.MethodPost, "/api/predictions", `{"game_id":42,"home_score":3,"away_score":2}`, asUser("user-1"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("edit after the window", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signedIn("user-1")
		ts.predictions.On("EditPrediction", mock.Anything, "user-1", int64(5), 1, 1).
			Return(nil, service.ErrEditWindowClosed).Once()

		rec := ts.do(http.MethodPut, "/api/predictions/5", `{"home_score":1,"away_score":1}`, asUser("user-1"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	ts.signedIn("user-1")
	account := &models.Account{UserID: "user-1", DisplayName: "jane", Currency: 1160}
	ts.accounts.On("GetProfile", mock.Anything, "user-1").Return(account, nil).Once()
	ts.leaderboard.On("UserStats", mock.Anything, "user-1").
		Return(&models.UserStats{Summary: &models.LeaderboardEntry{Rank: 1}, PendingBets: 2}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/me", "", asUser("user-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody[models.UserStats](t, rec)
	require.NotNil(t, stats.Account)
	assert.Equal(t, "jane", stats.Account.DisplayName)
	assert.Equal(t, 2, stats.PendingBets)
}

func TestUpdateDisplayName_Taken(t *testing.T) {
	ts := newTestServer(t)
	ts.signedIn("user-1")
	ts.accounts.On("UpdateDisplayName", mock.Anything, "user-1", "bob").Return(nil, service.ErrDisplayNameTaken).Once()

	rec := ts.do(http.MethodPut, "/api/me/display-name", `{"display_name":"bob"}`, asUser("user-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaderboard_PassesLimit(t *testing.T) {
	ts := newTestServer(t)
	ts.leaderboard.On("Leaderboard", mock.Anything, 10).
		Return([]*models.LeaderboardEntry{{Rank: 1, UserID: "user-1"}}).Once()

	rec := ts.do(http.MethodGet, "/api/leaderboard?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.LeaderboardEntry](t, rec), 1)
}

func TestGames_UpstreamDown(t *testing.T) {
	ts := newTestServer(t)
	ts.games.On("UpcomingGames", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: schedule", service.ErrUpstreamFetch)).Once()

	rec := ts.do(http.MethodGet, "/api/games", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	t.Run("token required", func(t *testing.T) {
		ts := newTestServer(t)
		for _, headers := range []map[string]string{nil, {"Authorization": "Bearer wrong"}, {"Authorization": testAdminToken}} {
			rec := ts.do(http.MethodPost, "/api/admin/resolve", "", headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("resolve returns the log", func(t *testing.T) {
		ts := newTestServer(t)
		report := &models.ResolveReport{Settled: 1, PaidOut: 260, Lines: []string{"Found 1 pending bets", "Bet resolution complete!"}}
		ts.settlement.On("ResolvePending", mock.Anything).Return(report, nil).Once()

		rec := ts.do(http.MethodPost, "/api/admin/resolve", "", asAdmin())
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeBody[models.ResolveReport](t, rec)
		assert.Equal(t, report.Lines, got.Lines)
		assert.Equal(t, int64(260), got.PaidOut)
	})

	t.Run("overlapping pass", func(t *testing.T) {
		ts := newTestServer(t)
		ts.settlement.On("ResolvePending", mock.Anything).Return(nil, service.ErrSettlementInProgress).Once()

		rec := ts.do(http.MethodPost, "/api/admin/resolve", "", asAdmin())
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("clear cache", func(t *testing.T) {
		ts := newTestServer(t)
		ts.feed.On("ClearCache", mock.Anything).Return(nil).Once()

		rec := ts.do(http.MethodPost, "/api/admin/cache/clear", "", asAdmin())
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("sign up hook", func(t *testing.T) {
		ts := newTestServer(t)
		ts.accounts.On("SignUp", mock.Anything, "user-9", "new@example.com").
			Return(&models.Account{UserID: "user-9", DisplayName: "new", Currency: 1000}, nil).Once()

		rec := ts.do(http.MethodPost, "/api/accounts", `{"user_id":"user-9","email":"new@example.com"}`, asAdmin())
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(1000), decodeBody[models.Account](t, rec).Currency)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInsufficientFunds, http.StatusPaymentRequired},
		{service.ErrDuplicatePrediction, http.StatusConflict},
		{service.ErrConcurrentSettlement, http.StatusConflict},
		{service.ErrDisplayNameTaken, http.StatusConflict},
		{service.ErrAccountNotFound, http.StatusNotFound},
		{service.ErrWagerNotFound, http.StatusNotFound},
		{service.ErrBettingClosed, http.StatusUnprocessableEntity},
		{service.ErrInvalidDisplayName, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", service.ErrUpstreamFetch), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
