package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBettingService(d *testDeps, now time.Time) *bettingService {
	svc := NewBettingService(d.factory, d.feed).(*bettingService)
	svc.now = fixedClock(now)
	return svc
}

func TestBettingService_PlaceBet_Success(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop.Add(-time.Hour))

	d.feed.On("FetchResult", ctx, int64(2024020001)).Return(scheduledGame(2024020001, "TOR", "MTL"), nil)
	d.bets.On("Create", ctx, mock.MatchedBy(func(b *models.SingleBet) bool {
		return b.UserID == "user-1" &&
			b.TeamChoice == "TOR" &&
			b.Amount == 100 &&
			b.Odds.Equal(dec("1.60")) &&
			b.Status == models.WagerStatusPending &&
			b.StartsAt != nil && b.StartsAt.Equal(puckDrop)
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.SingleBet).ID = 7
	})
	d.accounts.On("Debit", ctx, "user-1", int64(100)).Return(int64(900), nil)
	d.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == "user-1" &&
			h.BalanceBefore == 1000 &&
			h.BalanceAfter == 900 &&
			h.TransactionType == models.TransactionTypeBetPlaced &&
			h.TransactionMetadata["bet_id"] == int64(7)
	})).Return(nil)

	bet, err := svc.PlaceBet(ctx, "user-1", 2024020001, "TOR", 100, "TOR", "MTL", dec("1.60"))

	require.NoError(t, err)
	assert.Equal(t, int64(7), bet.ID)
	placed := d.events.OfType(events.EventTypeWagerPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, models.WagerKindSingleBet, placed[0].(events.WagerPlacedEvent).Kind)
	d.assertExpectations(t)
}

func TestBettingService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop.Add(-time.Hour))

	d.feed.On("FetchResult", ctx, int64(1)).Return(scheduledGame(1, "TOR", "MTL"), nil)
	d.bets.On("Create", ctx, mock.Anything).Return(nil)
	d.accounts.On("Debit", ctx, "user-1", int64(5000)).Return(int64(0), ErrInsufficientFunds)

	_, err := svc.PlaceBet(ctx, "user-1", 1, "MTL", 5000, "TOR", "MTL", dec("2.40"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	d.uow.AssertNotCalled(t, "Commit")
	d.uow.AssertCalled(t, "Rollback")
	d.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	assert.Empty(t, d.events.Events())
}

func TestBettingService_PlaceBet_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		now     time.Time
		result  *models.GameResult
		fetch   error
		team    string
		amount  int64
		odds    string
		wantErr error
	}{
		{
			name:    "zero amount",
			now:     puckDrop.Add(-time.Hour),
			team:    "TOR",
			amount:  0,
			odds:    "2.00",
			wantErr: ErrInvalidWager,
		},
		{
			name:    "team not in game",
			now:     puckDrop.Add(-time.Hour),
			team:    "BOS",
			amount:  10,
			odds:    "2.00",
			wantErr: ErrInvalidWager,
		},
		{
			name:    "odds outside range",
			now:     puckDrop.Add(-time.Hour),
			team:    "TOR",
			amount:  10,
			odds:    "7.50",
			wantErr: ErrInvalidWager,
		},
		{
			name:    "oracle disagrees on teams",
			now:     puckDrop.Add(-time.Hour),
			result:  scheduledGame(1, "MTL", "TOR"),
			team:    "TOR",
			amount:  10,
			odds:    "2.00",
			wantErr: ErrInvalidWager,
		},
		{
			name:    "more than thirty minutes after start",
			now:     puckDrop.Add(31 * time.Minute),
			result:  scheduledGame(1, "TOR", "MTL"),
			team:    "TOR",
			amount:  10,
			odds:    "2.00",
			wantErr: ErrBettingClosed,
		},
		{
			name:    "game already final",
			now:     puckDrop.Add(-time.Hour),
			result:  finalGame(1, "TOR", "MTL", 3, 2),
			team:    "TOR",
			amount:  10,
			odds:    "2.00",
			wantErr: ErrBettingClosed,
		},
		{
			name:    "upstream failure",
			now:     puckDrop.Add(-time.Hour),
			fetch:   fmt.Errorf("%w: status 503", ErrUpstreamFetch),
			team:    "TOR",
			amount:  10,
			odds:    "2.00",
			wantErr: ErrUpstreamFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			svc := newTestBettingService(d, tt.now)
			if tt.result != nil || tt.fetch != nil {
				d.feed.On("FetchResult", ctx, int64(1)).Return(tt.result, tt.fetch)
			}

			_, err := svc.PlaceBet(ctx, "user-1", 1, tt.team, tt.amount, "TOR", "MTL", dec(tt.odds))

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			d.factory.AssertNotCalled(t, "Create")
		})
	}
}

func TestBettingService_PlaceBet_OpenAtThirtyMinutes(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop.Add(30*time.Minute))

	d.feed.On("FetchResult", ctx, int64(1)).Return(scheduledGame(1, "TOR", "MTL"), nil)
	d.bets.On("Create", ctx, mock.Anything).Return(nil)
	d.accounts.On("Debit", ctx, "user-1", int64(10)).Return(int64(990), nil)
	d.history.On("Record", ctx, historyOf("user-1", models.TransactionTypeBetPlaced, -10)).Return(nil)

	_, err := svc.PlaceBet(ctx, "user-1", 1, "TOR", 10, "TOR", "MTL", dec("2.00"))

	assert.NoError(t, err)
}

func pendingBet(id int64, userID string, amount int64) *models.SingleBet {
	start := puckDrop
	return &models.SingleBet{
		ID:         id,
		UserID:     userID,
		GameID:     1,
		TeamChoice: "TOR",
		Amount:     amount,
		Odds:       dec("2.00"),
		HomeTeam:   "TOR",
		AwayTeam:   "MTL",
		StartsAt:   &start,
		Status:     models.WagerStatusPending,
	}
}

func TestBettingService_CancelBet_RefundsStake(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop.Add(10*time.Minute))

	bet := pendingBet(5, "user-1", 250)
	d.bets.On("GetByID", ctx, int64(5)).Return(bet, nil)
	d.bets.On("DeletePending", ctx, int64(5), "user-1").Return(bet, nil)
	d.accounts.On("Credit", ctx, "user-1", int64(250)).Return(int64(1000), nil)
	d.history.On("Record", ctx, historyOf("user-1", models.TransactionTypeBetCancelled, 250)).Return(nil)

	cancelled, err := svc.CancelBet(ctx, "user-1", 5)

	require.NoError(t, err)
	assert.Equal(t, int64(5), cancelled.ID)
	d.uow.AssertCalled(t, "Commit")
	d.assertExpectations(t)
}

func TestBettingService_CancelBet_Rejections(t *testing.T) {
	ctx := context.Background()

	settled := pendingBet(5, "user-1", 100)
	settled.Status = models.WagerStatusWon

	tests := []struct {
		name       string
		now        time.Time
		setupMocks func(d *testDeps)
		wantErr    error
	}{
		{
			name: "missing bet",
			now:  puckDrop,
			setupMocks: func(d *testDeps) {
				d.bets.On("GetByID", ctx, int64(5)).Return(nil, nil)
			},
			wantErr: ErrWagerNotFound,
		},
		{
			name: "someone else's bet",
			now:  puckDrop,
			setupMocks: func(d *testDeps) {
				d.bets.On("GetByID", ctx, int64(5)).Return(pendingBet(5, "user-2", 100), nil)
			},
			wantErr: ErrWagerNotFound,
		},
		{
			name: "already settled",
			now:  puckDrop,
			setupMocks: func(d *testDeps) {
				d.bets.On("GetByID", ctx, int64(5)).Return(settled, nil)
			},
			wantErr: ErrConcurrentSettlement,
		},
		{
			name: "past the cancel cutoff",
			now:  puckDrop.Add(16 * time.Minute),
			setupMocks: func(d *testDeps) {
				d.bets.On("GetByID", ctx, int64(5)).Return(pendingBet(5, "user-1", 100), nil)
			},
			wantErr: ErrBettingClosed,
		},
		{
			name: "settled between read and delete",
			now:  puckDrop,
			setupMocks: func(d *testDeps) {
				d.bets.On("GetByID", ctx, int64(5)).Return(pendingBet(5, "user-1", 100), nil)
				d.bets.On("DeletePending", ctx, int64(5), "user-1").Return(nil, nil)
			},
			wantErr: ErrConcurrentSettlement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.expectTransaction()
			tt.setupMocks(d)
			svc := newTestBettingService(d, tt.now)

			_, err := svc.CancelBet(ctx, "user-1", 5)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			d.accounts.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
			d.uow.AssertNotCalled(t, "Commit")
		})
	}
}

func TestBettingService_CancelBet_FallsBackToOracleStart(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop.Add(20*time.Minute))

	bet := pendingBet(5, "user-1", 100)
	bet.StartsAt = nil
	d.bets.On("GetByID", ctx, int64(5)).Return(bet, nil)
	d.feed.On("FetchResult", ctx, int64(1)).Return(scheduledGame(1, "TOR", "MTL"), nil)

	_, err := svc.CancelBet(ctx, "user-1", 5)

	assert.ErrorIs(t, err, ErrBettingClosed)
	d.feed.AssertExpectations(t)
}

func TestBettingService_ListBets_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	d.expectTransaction()
	svc := newTestBettingService(d, puckDrop)

	d.bets.On("GetByUser", ctx, "user-1", DefaultListLimit).Return([]*models.SingleBet{pendingBet(1, "user-1", 10)}, nil)

	bets, err := svc.ListBets(ctx, "user-1", 0)

	require.NoError(t, err)
	assert.Len(t, bets, 1)
}
