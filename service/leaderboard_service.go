package service

import (
	"context"
	"fmt"

	"github.com/Shaxten/nhl-app/models"

	log "github.com/sirupsen/logrus"
)

const DefaultLeaderboardLimit = 50

// leaderboardService implements the LeaderboardService interface
type leaderboardService struct {
	repo LeaderboardRepository
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(repo LeaderboardRepository) LeaderboardService {
	return &leaderboardService{repo: repo}
}

// Leaderboard returns the top users by balance. A failed read is logged and yields an empty board.
func (s *leaderboardService) Leaderboard(ctx context.Context, limit int) []*models.LeaderboardEntry {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultLeaderboardLimit
	}

	entries, err := s.repo.GetEntries(ctx, limit)
	if err != nil {
		log.WithError(err).WithField("limit", limit).Error("Failed to load leaderboard")
		return []*models.LeaderboardEntry{}
	}
	return entries
}

// UserStats returns one user's leaderboard row plus their pending wager counts
func (s *leaderboardService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	entry, err := s.repo.GetEntry(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for user %s: %w", userID, err)
	}
	if entry == nil {
		return nil, ErrAccountNotFound
	}

	bets, parlays, predictions, err := s.repo.CountPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending wagers for user %s: %w", userID, err)
	}

	return &models.UserStats{
		Summary:            entry,
		PendingBets:        bets,
		PendingParlays:     parlays,
		PendingPredictions: predictions,
	}, nil
}
