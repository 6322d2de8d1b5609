// Package api exposes the ledger over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Shaxten/nhl-app/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the operations the HTTP surface calls into
type Services struct {
	Accounts    service.AccountService
	Games       service.GameService
	Betting     service.BettingService
	Parlays     service.ParlayService
	Predictions service.PredictionService
	Settlement  service.SettlementService
	Leaderboard service.LeaderboardService
	Feed        service.GameFeed
	DB          Pinger
}

// Server routes HTTP requests to the services
type Server struct {
	svc        Services
	adminToken string
	validate   *validator.Validate
}

// NewServer creates a server. Admin routes reject every request when adminToken is empty.
func NewServer(svc Services, adminToken string) *Server {
	return &Server{
		svc:        svc,
		adminToken: adminToken,
		validate:   validator.New(),
	}
}

// Router returns the HTTP handler with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.With(s.requireAdmin).Post("/accounts", s.signUp)
		r.Get("/games", s.listGames)
		r.Get("/leaderboard", s.leaderboard)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/me", s.me)
			r.Put("/me/display-name", s.updateDisplayName)

			r.Post("/bets", s.placeBet)
			r.Get("/bets", s.listBets)
			r.Delete("/bets/{id}", s.cancelBet)

			r.Post("/parlays", s.placeParlay)
			r.Get("/parlays", s.listParlays)

			r.Post("/predictions", s.submitPrediction)
			r.Put("/predictions/{id}", s.editPrediction)
			r.Get("/predictions", s.listPredictions)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/resolve", s.resolve)
			r.Post("/cache/clear", s.clearCache)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP API did not shut down cleanly")
		return err
	}
	log.Info("HTTP API stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB != nil {
		if err := s.svc.DB.Ping(r.Context()); err != nil {
			log.WithError(err).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
