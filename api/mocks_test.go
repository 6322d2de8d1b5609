package api

import (
	"context"

	"github.com/Shaxten/nhl-app/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) SignUp(ctx context.Context, userID, email string) (*models.Account, error) {
	args := m.Called(ctx, userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.Account, error) {
	args := m.Called(ctx, userID, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetProfile(ctx context.Context, userID string) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type mockBettingService struct {
	mock.Mock
}

func (m *mockBettingService) PlaceBet(ctx context.Context, userID string, gameID int64, teamChoice string, amount int64, homeTeam, awayTeam string, odds decimal.Decimal) (*models.SingleBet, error) {
	args := m.Called(ctx, userID, gameID, teamChoice, amount, homeTeam, awayTeam, odds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SingleBet), args.Error(1)
}

func (m *mockBettingService) CancelBet(ctx context.Context, userID string, betID int64) (*models.SingleBet, error) {
	args := m.Called(ctx, userID, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SingleBet), args.Error(1)
}

func (m *mockBettingService) ListBets(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SingleBet), args.Error(1)
}

type mockParlayService struct {
	mock.Mock
}

func (m *mockParlayService) PlaceParlay(ctx context.Context, userID string, selections []models.ParlaySelection, stake int64) (*models.ParlayBet, error) {
	args := m.Called(ctx, userID, selections, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParlayBet), args.Error(1)
}

func (m *mockParlayService) ListParlays(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParlayBet), args.Error(1)
}

type mockPredictionService struct {
	mock.Mock
}

func (m *mockPredictionService) SubmitPrediction(ctx context.Context, userID string, gameID int64, homeTeam, awayTeam string, predictedHome, predictedAway int, stake int64) (*models.ScorePrediction, error) {
	args := m.Called(ctx, userID, gameID, homeTeam, awayTeam, predictedHome, predictedAway, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScorePrediction), args.Error(1)
}

func (m *mockPredictionService) EditPrediction(ctx context.Context, userID string, predictionID int64, predictedHome, predictedAway int) (*models.ScorePrediction, error) {
	args := m.Called(ctx, userID, predictionID, predictedHome, predictedAway)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScorePrediction), args.Error(1)
}

func (m *mockPredictionService) ListPredictions(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScorePrediction), args.Error(1)
}

type mockSettlementService struct {
	mock.Mock
}

func (m *mockSettlementService) ResolvePending(ctx context.Context) (*models.ResolveReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolveReport), args.Error(1)
}

type mockLeaderboardService struct {
	mock.Mock
}

func (m *mockLeaderboardService) Leaderboard(ctx context.Context, limit int) []*models.LeaderboardEntry {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.LeaderboardEntry)
}

func (m *mockLeaderboardService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
