package service

import (
	"context"
	"sync"
	"time"

	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, userID, displayName string, initialBalance int64) (*models.Account, bool, error) {
	args := m.Called(ctx, userID, displayName, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	args := m.Called(ctx, userID, displayName)
	return args.Error(0)
}

func (m *MockAccountRepository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) ApplyStats(ctx context.Context, userID string, delta models.StatDelta) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

// MockSingleBetRepository is a mock implementation of SingleBetRepository
type MockSingleBetRepository struct {
	mock.Mock
}

func (m *MockSingleBetRepository) Create(ctx context.Context, bet *models.SingleBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockSingleBetRepository) GetByID(ctx context.Context, id int64) (*models.SingleBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SingleBet), args.Error(1)
}

func (m *MockSingleBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SingleBet), args.Error(1)
}

func (m *MockSingleBetRepository) GetPending(ctx context.Context) ([]*models.SingleBet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SingleBet), args.Error(1)
}

func (m *MockSingleBetRepository) DeletePending(ctx context.Context, id int64, userID string) (*models.SingleBet, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SingleBet), args.Error(1)
}

// MockParlayBetRepository is a mock implementation of ParlayBetRepository
type MockParlayBetRepository struct {
	mock.Mock
}

func (m *MockParlayBetRepository) Create(ctx context.Context, parlay *models.ParlayBet) error {
	args := m.Called(ctx, parlay)
	return args.Error(0)
}

func (m *MockParlayBetRepository) GetByID(ctx context.Context, id int64) (*models.ParlayBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParlayBet), args.Error(1)
}

func (m *MockParlayBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParlayBet), args.Error(1)
}

func (m *MockParlayBetRepository) GetPending(ctx context.Context) ([]*models.ParlayBet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParlayBet), args.Error(1)
}

// MockScorePredictionRepository is a mock implementation of ScorePredictionRepository
type MockScorePredictionRepository struct {
	mock.Mock
}

func (m *MockScorePredictionRepository) Create(ctx context.Context, prediction *models.ScorePrediction) error {
	args := m.Called(ctx, prediction)
	return args.Error(0)
}

func (m *MockScorePredictionRepository) GetByID(ctx context.Context, id int64) (*models.ScorePrediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScorePrediction), args.Error(1)
}

func (m *MockScorePredictionRepository) GetByUserAndGame(ctx context.Context, userID string, gameID int64) (*models.ScorePrediction, error) {
	args := m.Called(ctx, userID, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScorePrediction), args.Error(1)
}

func (m *MockScorePredictionRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScorePrediction), args.Error(1)
}

func (m *MockScorePredictionRepository) GetPending(ctx context.Context) ([]*models.ScorePrediction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScorePrediction), args.Error(1)
}

func (m *MockScorePredictionRepository) UpdatePredictedScores(ctx context.Context, id int64, userID string, home, away int) (bool, error) {
	args := m.Called(ctx, id, userID, home, away)
	return args.Bool(0), args.Error(1)
}

func (m *MockScorePredictionRepository) RecordActualScores(ctx context.Context, id int64, home, away int) error {
	args := m.Called(ctx, id, home, away)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) GetByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockLeaderboardRepository is a mock implementation of LeaderboardRepository
type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) GetEntries(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardRepository) GetEntry(ctx context.Context, userID string) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardRepository) CountPending(ctx context.Context, userID string) (int, int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Int(2), args.Error(3)
}

// MockGameFeed is a mock implementation of GameFeed
type MockGameFeed struct {
	mock.Mock
}

func (m *MockGameFeed) FetchResult(ctx context.Context, gameID int64) (*models.GameResult, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameResult), args.Error(1)
}

func (m *MockGameFeed) FetchStandings(ctx context.Context) ([]models.Standing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Standing), args.Error(1)
}

func (m *MockGameFeed) FetchSchedule(ctx context.Context, day time.Time) ([]models.ScheduledGame, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduledGame), args.Error(1)
}

func (m *MockGameFeed) ClearCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockGameService is a mock implementation of GameService
type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) UpcomingGames(ctx context.Context, now time.Time) ([]*models.Matchup, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Matchup), args.Error(1)
}

func (m *MockGameService) Matchup(ctx context.Context, gameID int64) (*models.Matchup, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Matchup), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingPublisher keeps every published event for later assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of everything published so far
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// OfType returns the published events of one type
func (p *RecordingPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range p.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are injected with
// SetRepositories; CompareAndTransition runs the side effect when the expectation returns nil.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo    AccountRepository
	singleBetRepo  SingleBetRepository
	parlayBetRepo  ParlayBetRepository
	predictionRepo ScorePredictionRepository
	balanceHistory BalanceHistoryRepository
	eventBus       EventPublisher
}

// SetRepositories wires the given mocks into the unit of work by type
func (m *MockUnitOfWork) SetRepositories(repos ...any) {
	for _, repo := range repos {
		switch r := repo.(type) {
		case *MockAccountRepository:
			m.accountRepo = r
		case *MockSingleBetRepository:
			m.singleBetRepo = r
		case *MockParlayBetRepository:
			m.parlayBetRepo = r
		case *MockScorePredictionRepository:
			m.predictionRepo = r
		case *MockBalanceHistoryRepository:
			m.balanceHistory = r
		case EventPublisher:
			m.eventBus = r
		default:
			panic("unsupported repository mock")
		}
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) CompareAndTransition(ctx context.Context, ref models.WagerRef, expected, next models.WagerStatus, sideEffect func() error) error {
	args := m.Called(ctx, ref, expected, next)
	if err := args.Error(0); err != nil {
		return err
	}
	if sideEffect == nil {
		return nil
	}
	return sideEffect()
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) SingleBetRepository() SingleBetRepository {
	return m.singleBetRepo
}

func (m *MockUnitOfWork) ParlayBetRepository() ParlayBetRepository {
	return m.parlayBetRepo
}

func (m *MockUnitOfWork) ScorePredictionRepository() ScorePredictionRepository {
	return m.predictionRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistory
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &RecordingPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
