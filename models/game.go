package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameState is the upstream game-state code, e.g. FUT, PRE, LIVE, CRIT, OFF, FINAL
type GameState string

const (
	GameStateFinal GameState = "FINAL"
	GameStateOff   GameState = "OFF"
)

// IsFinal reports whether the state is terminal. Unknown states are never final.
func (s GameState) IsFinal() bool {
	return s == GameStateFinal || s == GameStateOff
}

// GameResult is the authoritative state and score of one game
type GameResult struct {
	GameID    int64     `json:"game_id"`
	State     GameState `json:"state"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	StartTime time.Time `json:"start_time"`
}

// IsFinal reports whether the game has ended
func (g *GameResult) IsFinal() bool {
	return g.State.IsFinal()
}

// IsTie reports whether a final game ended level
func (g *GameResult) IsTie() bool {
	return g.HomeScore == g.AwayScore
}

// Winner returns the team code with the higher score, or "" on a tie
func (g *GameResult) Winner() string {
	switch {
	case g.HomeScore > g.AwayScore:
		return g.HomeTeam
	case g.AwayScore > g.HomeScore:
		return g.AwayTeam
	default:
		return ""
	}
}

// HasTeam reports whether team plays in the game
func (g *GameResult) HasTeam(team string) bool {
	return team == g.HomeTeam || team == g.AwayTeam
}

// Standing is one team's line in the league standings
type Standing struct {
	TeamAbbrev  string `json:"team_abbrev"`
	TeamName    string `json:"team_name"`
	Division    string `json:"division"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	OTLosses    int    `json:"ot_losses"`
	Points      int    `json:"points"`
	GamesPlayed int    `json:"games_played"`
}

// Record formats the standing as W-L-OT
func (s Standing) Record() string {
	return formatRecord(s.Wins, s.Losses, s.OTLosses)
}

// ScheduledGame is one entry of the daily schedule
type ScheduledGame struct {
	GameID    int64     `json:"game_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	State     GameState `json:"state"`
}

// Matchup is a scheduled game with odds quoted for both sides
type Matchup struct {
	GameID     int64           `json:"game_id"`
	HomeTeam   string          `json:"home_team"`
	AwayTeam   string          `json:"away_team"`
	StartTime  time.Time       `json:"start_time"`
	HomeRecord string          `json:"home_record"`
	AwayRecord string          `json:"away_record"`
	HomePoints int             `json:"home_points"`
	AwayPoints int             `json:"away_points"`
	HomeOdds   decimal.Decimal `json:"home_odds"`
	AwayOdds   decimal.Decimal `json:"away_odds"`
}

// OddsFor returns the quoted odds for team, and false when team is not in the matchup
func (m *Matchup) OddsFor(team string) (decimal.Decimal, bool) {
	switch team {
	case m.HomeTeam:
		return m.HomeOdds, true
	case m.AwayTeam:
		return m.AwayOdds, true
	default:
		return decimal.Zero, false
	}
}
