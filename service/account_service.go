package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shaxten/nhl-app/config"
	"github.com/Shaxten/nhl-app/models"

	log "github.com/sirupsen/logrus"
)

const maxDisplayNameAttempts = 100

// accountService implements the AccountService interface
type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// SignUp opens an account named after the email's local part, appending 2, 3, ... while
// the name is taken. An existing account is returned unchanged.
func (s *accountService) SignUp(ctx context.Context, userID, email string) (*models.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	startingBalance := config.Get().StartingBalance
	base := displayNameFromEmail(email)

	var account *models.Account
	for attempt := 1; attempt <= maxDisplayNameAttempts; attempt++ {
		candidate := displayNameCandidate(base, attempt)

		var created bool
		account, created, err = uow.AccountRepository().Create(ctx, userID, candidate, startingBalance)
		if errors.Is(err, ErrDisplayNameTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		if !created {
			// Created concurrently by another sign-up call
			return account, nil
		}
		break
	}
	if account == nil {
		return nil, fmt.Errorf("no free display name for %q after %d attempts: %w", base, maxDisplayNameAttempts, ErrDisplayNameTaken)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   0,
		BalanceAfter:    startingBalance,
		ChangeAmount:    startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"display_name": account.DisplayName,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":      userID,
		"displayName": account.DisplayName,
		"balance":     startingBalance,
	}).Info("Account created")
	return account, nil
}

// UpdateDisplayName renames the user's account
func (s *accountService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.Account, error) {
	name, err := ValidateDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().UpdateDisplayName(ctx, userID, name); err != nil {
		return nil, err
	}
	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}

// GetProfile returns the user's account
func (s *accountService) GetProfile(ctx context.Context, userID string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
