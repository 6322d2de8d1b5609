package nhl

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shaxten/nhl-app/models"
)

// Wire shapes of the NHL web API. Pointers mark fields that must be present.

type landingTeam struct {
	Abbrev *string `json:"abbrev"`
	Score  *int    `json:"score"`
}

type landingPayload struct {
	ID           *int64       `json:"id"`
	GameState    *string      `json:"gameState"`
	StartTimeUTC *string      `json:"startTimeUTC"`
	HomeTeam     *landingTeam `json:"homeTeam"`
	AwayTeam     *landingTeam `json:"awayTeam"`
}

type localizedName struct {
	Default *string `json:"default"`
}

type standingRow struct {
	TeamAbbrev   *localizedName `json:"teamAbbrev"`
	TeamName     *localizedName `json:"teamName"`
	DivisionName string         `json:"divisionName"`
	Wins         int            `json:"wins"`
	Losses       int            `json:"losses"`
	OTLosses     int            `json:"otLosses"`
	Points       int            `json:"points"`
	GamesPlayed  int            `json:"gamesPlayed"`
}

type standingsPayload struct {
	Standings []standingRow `json:"standings"`
}

type scheduleTeam struct {
	Abbrev *string `json:"abbrev"`
}

type scheduleGame struct {
	ID           *int64        `json:"id"`
	StartTimeUTC *string       `json:"startTimeUTC"`
	GameState    string        `json:"gameState"`
	HomeTeam     *scheduleTeam `json:"homeTeam"`
	AwayTeam     *scheduleTeam `json:"awayTeam"`
}

type scheduleDay struct {
	Date  string         `json:"date"`
	Games []scheduleGame `json:"games"`
}

type schedulePayload struct {
	GameWeek []scheduleDay `json:"gameWeek"`
}

func (p *landingPayload) toResult(requestedID int64) (*models.GameResult, error) {
	if p.ID == nil {
		return nil, fmt.Errorf("missing id")
	}
	if *p.ID != requestedID {
		return nil, fmt.Errorf("payload is for game %d", *p.ID)
	}
	if p.GameState == nil || strings.TrimSpace(*p.GameState) == "" {
		return nil, fmt.Errorf("missing gameState")
	}
	start, err := parseStartTime(p.StartTimeUTC)
	if err != nil {
		return nil, err
	}
	home, err := teamAbbrev(p.HomeTeam, "homeTeam")
	if err != nil {
		return nil, err
	}
	away, err := teamAbbrev(p.AwayTeam, "awayTeam")
	if err != nil {
		return nil, err
	}

	result := &models.GameResult{
		GameID:    *p.ID,
		State:     models.GameState(*p.GameState),
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: start,
	}

	// Scores may be absent before puck drop, but a final result without both is unusable
	if p.HomeTeam.Score != nil {
		result.HomeScore = *p.HomeTeam.Score
	}
	if p.AwayTeam.Score != nil {
		result.AwayScore = *p.AwayTeam.Score
	}
	if result.IsFinal() {
		if p.HomeTeam.Score == nil || p.AwayTeam.Score == nil {
			return nil, fmt.Errorf("final game is missing a score")
		}
		if result.HomeScore < 0 || result.AwayScore < 0 {
			return nil, fmt.Errorf("negative score %d-%d", result.HomeScore, result.AwayScore)
		}
	}
	return result, nil
}

func teamAbbrev(team *landingTeam, field string) (string, error) {
	if team == nil {
		return "", fmt.Errorf("missing %s", field)
	}
	if team.Abbrev == nil || strings.TrimSpace(*team.Abbrev) == "" {
		return "", fmt.Errorf("missing %s.abbrev", field)
	}
	return strings.ToUpper(strings.TrimSpace(*team.Abbrev)), nil
}

func parseStartTime(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, fmt.Errorf("missing startTimeUTC")
	}
	start, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid startTimeUTC %q: %w", *raw, err)
	}
	return start.UTC(), nil
}

func (p *standingsPayload) toStandings() ([]models.Standing, error) {
	if p.Standings == nil {
		return nil, fmt.Errorf("missing standings")
	}
	out := make([]models.Standing, 0, len(p.Standings))
	for i, row := range p.Standings {
		if row.TeamAbbrev == nil || row.TeamAbbrev.Default == nil || *row.TeamAbbrev.Default == "" {
			return nil, fmt.Errorf("standings[%d]: missing teamAbbrev", i)
		}
		standing := models.Standing{
			TeamAbbrev:  strings.ToUpper(*row.TeamAbbrev.Default),
			Division:    row.DivisionName,
			Wins:        row.Wins,
			Losses:      row.Losses,
			OTLosses:    row.OTLosses,
			Points:      row.Points,
			GamesPlayed: row.GamesPlayed,
		}
		if row.TeamName != nil && row.TeamName.Default != nil {
			standing.TeamName = *row.TeamName.Default
		}
		out = append(out, standing)
	}
	return out, nil
}

// toSchedule picks the gameWeek entry for day, falling back to the first one
func (p *schedulePayload) toSchedule(day time.Time) ([]models.ScheduledGame, error) {
	if p.GameWeek == nil {
		return nil, fmt.Errorf("missing gameWeek")
	}
	if len(p.GameWeek) == 0 {
		return []models.ScheduledGame{}, nil
	}

	selected := p.GameWeek[0]
	want := day.Format(dateLayout)
	for _, d := range p.GameWeek {
		if d.Date == want {
			selected = d
			break
		}
	}

	out := make([]models.ScheduledGame, 0, len(selected.Games))
	for i, g := range selected.Games {
		if g.ID == nil {
			return nil, fmt.Errorf("games[%d]: missing id", i)
		}
		start, err := parseStartTime(g.StartTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", *g.ID, err)
		}
		if g.HomeTeam == nil || g.HomeTeam.Abbrev == nil || g.AwayTeam == nil || g.AwayTeam.Abbrev == nil {
			return nil, fmt.Errorf("game %d: missing team abbrev", *g.ID)
		}
		out = append(out, models.ScheduledGame{
			GameID:    *g.ID,
			HomeTeam:  strings.ToUpper(*g.HomeTeam.Abbrev),
			AwayTeam:  strings.ToUpper(*g.AwayTeam.Abbrev),
			StartTime: start,
			State:     models.GameState(g.GameState),
		})
	}
	return out, nil
}
