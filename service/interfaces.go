package service

import (
	"context"
	"time"

	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByUserID retrieves an account, or nil when it does not exist
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)

	// Create inserts an account with the starting balance. created is false when the user
	// already had an account, which is then returned unchanged. A taken display name returns
	// ErrDisplayNameTaken.
	Create(ctx context.Context, userID, displayName string, initialBalance int64) (account *models.Account, created bool, err error)

	// UpdateDisplayName renames an account. A taken display name returns ErrDisplayNameTaken.
	UpdateDisplayName(ctx context.Context, userID, displayName string) error

	// Debit subtracts amount only if the balance covers it, returning the new balance.
	// No matching row returns ErrInsufficientFunds.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)

	// Credit adds amount and returns the new balance
	Credit(ctx context.Context, userID string, amount int64) (int64, error)

	// ApplyStats adds the delta to the settled-bet counters
	ApplyStats(ctx context.Context, userID string, delta models.StatDelta) error
}

// SingleBetRepository defines the interface for single bet data access
type SingleBetRepository interface {
	// Create inserts a pending bet and fills in its id and created_at
	Create(ctx context.Context, bet *models.SingleBet) error

	// GetByID retrieves a bet, or nil when it does not exist
	GetByID(ctx context.Context, id int64) (*models.SingleBet, error)

	// GetByUser returns a user's bets, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error)

	// GetPending returns every pending bet ordered by game and id
	GetPending(ctx context.Context) ([]*models.SingleBet, error)

	// DeletePending removes a pending bet owned by userID and returns it, or nil when nothing matched
	DeletePending(ctx context.Context, id int64, userID string) (*models.SingleBet, error)
}

// ParlayBetRepository defines the interface for parlay data access
type ParlayBetRepository interface {
	Create(ctx context.Context, parlay *models.ParlayBet) error
	GetByID(ctx context.Context, id int64) (*models.ParlayBet, error)
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error)
	GetPending(ctx context.Context) ([]*models.ParlayBet, error)
}

// ScorePredictionRepository defines the interface for score prediction data access
type ScorePredictionRepository interface {
	// Create inserts a pending prediction. A second one for the same user and game returns ErrDuplicatePrediction.
	Create(ctx context.Context, prediction *models.ScorePrediction) error

	GetByID(ctx context.Context, id int64) (*models.ScorePrediction, error)
	GetByUserAndGame(ctx context.Context, userID string, gameID int64) (*models.ScorePrediction, error)
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error)
	GetPending(ctx context.Context) ([]*models.ScorePrediction, error)

	// UpdatePredictedScores overwrites the guess of a pending prediction owned by userID.
	// Returns false when no pending row matched.
	UpdatePredictedScores(ctx context.Context, id int64, userID string, home, away int) (bool, error)

	// RecordActualScores stores the final score on the prediction
	RecordActualScores(ctx context.Context, id int64, home, away int) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.BalanceHistory, error)

	// GetByDateRange returns balance history within a date range
	GetByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.BalanceHistory, error)
}

// LeaderboardRepository reads aggregate standings from a consistent snapshot of the ledger
type LeaderboardRepository interface {
	// GetEntries returns up to limit users ordered by balance descending
	GetEntries(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)

	// GetEntry returns one user's row, or nil when the account does not exist
	GetEntry(ctx context.Context, userID string) (*models.LeaderboardEntry, error)

	// CountPending returns the user's pending bets, parlays and predictions
	CountPending(ctx context.Context, userID string) (bets, parlays, predictions int, err error)
}

// EventPublisher collects domain events. Within a unit of work they are delivered after commit.
type EventPublisher interface {
	Publish(event events.Event)
}

// GameFeed is the authoritative source of game results, standings and schedule
type GameFeed interface {
	// FetchResult returns the current state and score of one game. Failures wrap ErrUpstreamFetch.
	FetchResult(ctx context.Context, gameID int64) (*models.GameResult, error)

	// FetchStandings returns the current league standings
	FetchStandings(ctx context.Context) ([]models.Standing, error)

	// FetchSchedule returns the games scheduled on the given day
	FetchSchedule(ctx context.Context, day time.Time) ([]models.ScheduledGame, error)

	// ClearCache drops every cached upstream response
	ClearCache(ctx context.Context) error
}

// AccountService defines the interface for account operations
type AccountService interface {
	// SignUp creates the account for a newly registered user. Calling it again is a no-op.
	SignUp(ctx context.Context, userID, email string) (*models.Account, error)

	// UpdateDisplayName renames the user's account
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.Account, error)

	// GetProfile returns the account, or ErrAccountNotFound
	GetProfile(ctx context.Context, userID string) (*models.Account, error)
}

// GameService quotes odds for scheduled games
type GameService interface {
	// UpcomingGames returns today's games that are still open for betting
	UpcomingGames(ctx context.Context, now time.Time) ([]*models.Matchup, error)

	// Matchup quotes one game
	Matchup(ctx context.Context, gameID int64) (*models.Matchup, error)
}

// BettingService defines the interface for single bet operations
type BettingService interface {
	// PlaceBet debits amount and records a pending bet on teamChoice at the given odds
	PlaceBet(ctx context.Context, userID string, gameID int64, teamChoice string, amount int64, homeTeam, awayTeam string, odds decimal.Decimal) (*models.SingleBet, error)

	// CancelBet deletes a pending bet and refunds the stake
	CancelBet(ctx context.Context, userID string, betID int64) (*models.SingleBet, error)

	// ListBets returns the user's bets, newest first
	ListBets(ctx context.Context, userID string, limit int) ([]*models.SingleBet, error)
}

// ParlayService defines the interface for parlay operations
type ParlayService interface {
	PlaceParlay(ctx context.Context, userID string, selections []models.ParlaySelection, stake int64) (*models.ParlayBet, error)
	ListParlays(ctx context.Context, userID string, limit int) ([]*models.ParlayBet, error)
}

// PredictionService defines the interface for exact-score predictions
type PredictionService interface {
	// SubmitPrediction records a guess, debiting stake when it is positive
	SubmitPrediction(ctx context.Context, userID string, gameID int64, homeTeam, awayTeam string, predictedHome, predictedAway int, stake int64) (*models.ScorePrediction, error)

	// EditPrediction overwrites the guess while the prediction is pending and recent
	EditPrediction(ctx context.Context, userID string, predictionID int64, predictedHome, predictedAway int) (*models.ScorePrediction, error)

	ListPredictions(ctx context.Context, userID string, limit int) ([]*models.ScorePrediction, error)
}

// SettlementService resolves pending wagers against final results
type SettlementService interface {
	// ResolvePending runs one settlement pass over single bets, parlays and predictions
	ResolvePending(ctx context.Context) (*models.ResolveReport, error)
}

// LeaderboardService defines the interface for read-only standings of users
type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit int) []*models.LeaderboardEntry
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// CompareAndTransition moves ref from expected to next only if its stored status is still
	// expected, then runs sideEffect in the same transaction. When the status no longer matches
	// it returns ErrConcurrentSettlement and sideEffect is not called.
	CompareAndTransition(ctx context.Context, ref models.WagerRef, expected, next models.WagerStatus, sideEffect func() error) error

	// Repository getters
	AccountRepository() AccountRepository
	SingleBetRepository() SingleBetRepository
	ParlayBetRepository() ParlayBetRepository
	ScorePredictionRepository() ScorePredictionRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
