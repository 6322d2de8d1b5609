package models

import "fmt"

// WagerKind identifies which ledger table a wager lives in
type WagerKind string

const (
	WagerKindSingleBet  WagerKind = "single_bet"
	WagerKindParlay     WagerKind = "parlay"
	WagerKindPrediction WagerKind = "prediction"
)

// WagerStatus is the settlement state of any wager. Only pending is non-terminal.
type WagerStatus string

const (
	WagerStatusPending   WagerStatus = "pending"
	WagerStatusWon       WagerStatus = "won"
	WagerStatusLost      WagerStatus = "lost"
	WagerStatusRefunded  WagerStatus = "refunded"
	WagerStatusCorrect   WagerStatus = "correct"
	WagerStatusIncorrect WagerStatus = "incorrect"
)

// IsTerminal reports whether the status can no longer change
func (s WagerStatus) IsTerminal() bool {
	return s != WagerStatusPending
}

var terminalStatuses = map[WagerKind][]WagerStatus{
	WagerKindSingleBet:  {WagerStatusWon, WagerStatusLost, WagerStatusRefunded},
	WagerKindParlay:     {WagerStatusWon, WagerStatusLost},
	WagerKindPrediction: {WagerStatusCorrect, WagerStatusIncorrect},
}

// WagerRef addresses a single wager row
type WagerRef struct {
	Kind WagerKind
	ID   int64
}

func (r WagerRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// ValidateTransition checks that from -> to is a legal move for the wager kind
func (r WagerRef) ValidateTransition(from, to WagerStatus) error {
	if from != WagerStatusPending {
		return fmt.Errorf("%s: transition must start from pending, got %s", r, from)
	}
	allowed, ok := terminalStatuses[r.Kind]
	if !ok {
		return fmt.Errorf("%s: unknown wager kind", r)
	}
	for _, status := range allowed {
		if status == to {
			return nil
		}
	}
	return fmt.Errorf("%s: %s is not a terminal status for %s", r, to, r.Kind)
}
