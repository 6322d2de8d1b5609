package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := s.svc.Accounts.SignUp(r.Context(), req.UserID, req.Email)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	account, err := s.svc.Accounts.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	stats, err := s.svc.Leaderboard.UserStats(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	stats.Account = account
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) updateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req displayNameRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := s.svc.Accounts.UpdateDisplayName(r.Context(), userIDFrom(r.Context()), req.DisplayName)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.svc.Games.UpcomingGames(r.Context(), time.Now())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Leaderboard.Leaderboard(r.Context(), queryLimit(r)))
}

// quote prices team in gameID from current standings. Client-supplied odds are never trusted.
func (s *Server) quote(ctx context.Context, gameID int64, team string) (*models.Matchup, decimal.Decimal, error) {
	matchup, err := s.svc.Games.Matchup(ctx, gameID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	price, ok := matchup.OddsFor(team)
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("%w: %s is not playing in game %d", service.ErrInvalidWager, team, gameID)
	}
	return matchup, price, nil
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	matchup, price, err := s.quote(ctx, req.GameID, req.Team)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	bet, err := s.svc.Betting.PlaceBet(ctx, userIDFrom(ctx), req.GameID, req.Team, req.Amount,
		matchup.HomeTeam, matchup.AwayTeam, price)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.Betting.ListBets(r.Context(), userIDFrom(r.Context()), queryLimit(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request) {
	betID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bet, err := s.svc.Betting.CancelBet(r.Context(), userIDFrom(r.Context()), betID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

func (s *Server) placeParlay(w http.ResponseWriter, r *http.Request) {
	var req placeParlayRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	selections := make([]models.ParlaySelection, 0, len(req.Legs))
	for _, leg := range req.Legs {
		_, price, err := s.quote(ctx, leg.GameID, leg.Team)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		selections = append(selections, models.ParlaySelection{GameID: leg.GameID, Team: leg.Team, Odds: price})
	}

	parlay, err := s.svc.Parlays.PlaceParlay(ctx, userIDFrom(ctx), selections, req.Stake)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, parlay)
}

func (s *Server) listParlays(w http.ResponseWriter, r *http.Request) {
	parlays, err := s.svc.Parlays.ListParlays(r.Context(), userIDFrom(r.Context()), queryLimit(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parlays)
}

func (s *Server) submitPrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	matchup, err := s.svc.Games.Matchup(ctx, req.GameID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	prediction, err := s.svc.Predictions.SubmitPrediction(ctx, userIDFrom(ctx), req.GameID,
		matchup.HomeTeam, matchup.AwayTeam, *req.HomeScore, *req.AwayScore, req.Stake)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prediction)
}

func (s *Server) editPrediction(w http.ResponseWriter, r *http.Request) {
	predictionID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req editPredictionRequest
	if !s.decode(w, r, &req) {
		return
	}
	prediction, err := s.svc.Predictions.EditPrediction(r.Context(), userIDFrom(r.Context()),
		predictionID, *req.HomeScore, *req.AwayScore)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) listPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := s.svc.Predictions.ListPredictions(r.Context(), userIDFrom(r.Context()), queryLimit(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictions)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Settlement.ResolvePending(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Feed.ClearCache(r.Context()); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	log.WithField("requestID", requestIDFrom(r.Context())).Info("Cleared upstream cache")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
