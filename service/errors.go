package service

import "errors"

var (
	// ErrInsufficientFunds is returned when a conditional debit matched no row
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrDuplicatePrediction is returned for a second prediction on the same game
	ErrDuplicatePrediction = errors.New("prediction already submitted for this game")
	// ErrGameNotFinal signals that a wager cannot be settled yet
	ErrGameNotFinal = errors.New("game is not final")
	// ErrUpstreamFetch wraps every failure to obtain data from the NHL API
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrConcurrentSettlement is returned when a guarded transition matched no row
	ErrConcurrentSettlement = errors.New("wager already processed")
	// ErrStatUpdate is returned when a credit or counter write fails during settlement
	ErrStatUpdate = errors.New("failed to update account stats")

	ErrAccountNotFound      = errors.New("account not found")
	ErrWagerNotFound        = errors.New("wager not found")
	ErrBettingClosed        = errors.New("betting is closed for this game")
	ErrEditWindowClosed     = errors.New("prediction can no longer be edited")
	ErrInvalidWager         = errors.New("invalid wager")
	ErrDisplayNameTaken     = errors.New("display name is already taken")
	ErrInvalidDisplayName   = errors.New("display name must be 3 to 32 characters")
	ErrSettlementInProgress = errors.New("settlement pass already running")
)
