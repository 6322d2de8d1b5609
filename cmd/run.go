package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Shaxten/nhl-app/api"
	"github.com/Shaxten/nhl-app/cache"
	"github.com/Shaxten/nhl-app/config"
	"github.com/Shaxten/nhl-app/database"
	"github.com/Shaxten/nhl-app/events"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/nhl"
	"github.com/Shaxten/nhl-app/notify"
	"github.com/Shaxten/nhl-app/observability"
	"github.com/Shaxten/nhl-app/repository"
	"github.com/Shaxten/nhl-app/scheduler"
	"github.com/Shaxten/nhl-app/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level, with JSON output in production
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// app holds every long-lived dependency and the closers that release them
type app struct {
	db       *database.DB
	eventBus *events.Bus
	feed     *nhl.Client
	services api.Services
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects to the database and upstreams and wires the services
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Metrics disabled")
	}
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to flush metrics")
		}
	})

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	caches, err := newFetchCaches(ctx, cfg, a)
	if err != nil {
		a.close()
		return nil, err
	}
	a.feed = nhl.NewClient(nhl.Options{
		BaseURL:      cfg.NHLAPIBaseURL,
		Timeout:      cfg.HTTPTimeout,
		ResultTTL:    cfg.ResultCacheTTL,
		StandingsTTL: cfg.StandingsCacheTTL,
		ScheduleTTL:  cfg.ScheduleCacheTTL,
	}, caches)

	a.eventBus = events.NewBus()
	if cfg.NATSServers != "" {
		if err := attachForwarder(ctx, cfg, a); err != nil {
			a.close()
			return nil, err
		}
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		session, err := notify.NewSession(cfg.DiscordToken)
		if err != nil {
			a.close()
			return nil, err
		}
		notify.NewSettlementNotifier(session, cfg.DiscordChannelID).Attach(a.eventBus)
		a.closers = append(a.closers, func() { _ = session.Close() })
		log.WithField("channelID", cfg.DiscordChannelID).Info("Settlement summaries will be posted to Discord")
	}
	// Let in-flight handlers finish before their dependencies close
	a.closers = append(a.closers, a.eventBus.Wait)

	uowFactory := repository.NewUnitOfWorkFactory(db, a.eventBus)
	games := service.NewGameService(a.feed)
	a.services = api.Services{
		Accounts:    service.NewAccountService(uowFactory),
		Games:       games,
		Betting:     service.NewBettingService(uowFactory, a.feed),
		Parlays:     service.NewParlayService(uowFactory, a.feed),
		Predictions: service.NewPredictionService(uowFactory, a.feed, games),
		Settlement:  service.NewSettlementService(uowFactory, a.feed, a.eventBus),
		Leaderboard: service.NewLeaderboardService(repository.NewLeaderboardRepository(db)),
		Feed:        a.feed,
		DB:          db,
	}
	return a, nil
}

func newFetchCaches(ctx context.Context, cfg *config.Config, a *app) (nhl.Caches, error) {
	var client *redis.Client
	if cfg.CacheBackend == cache.RedisBackend {
		var err error
		client, err = cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nhl.Caches{}, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
	}

	results, err := cache.New[models.GameResult](cfg.CacheBackend, client, "nhl:results")
	if err != nil {
		return nhl.Caches{}, err
	}
	standings, err := cache.New[[]models.Standing](cfg.CacheBackend, client, "nhl:standings")
	if err != nil {
		return nhl.Caches{}, err
	}
	schedule, err := cache.New[[]models.ScheduledGame](cfg.CacheBackend, client, "nhl:schedule")
	if err != nil {
		return nhl.Caches{}, err
	}

	for _, c := range []any{results, standings, schedule} {
		if stopper, ok := c.(interface{ Stop() }); ok {
			a.closers = append(a.closers, stopper.Stop)
		}
	}
	log.WithField("backend", cfg.CacheBackend).Info("Fetch cache initialized")
	return nhl.Caches{Results: results, Standings: standings, Schedule: schedule}, nil
}

func attachForwarder(ctx context.Context, cfg *config.Config, a *app) error {
	client := events.NewNATSClient(cfg.NATSServers)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Connect(connectCtx); err != nil {
		return err
	}
	if err := client.EnsureStream(); err != nil {
		_ = client.Close()
		return err
	}
	events.NewForwarder(client, cfg.OTelServiceName).Attach(a.eventBus)
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close NATS connection")
		}
	})
	return nil
}

// Run starts the HTTP API and the settlement schedule and blocks until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting Millcoins ledger...")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.SettlementCron != "" {
		s, err := scheduler.New(cfg.SettlementCron, a.services.Settlement)
		if err != nil {
			return err
		}
		stop := s.Start(ctx)
		defer stop()
	}

	server := api.NewServer(a.services, cfg.AdminToken)
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info("Shutting down...")
	return nil
}

// Resolve runs one settlement pass and prints its log
func Resolve(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.services.Settlement.ResolvePending(ctx)
	if err != nil {
		return fmt.Errorf("settlement pass failed: %w", err)
	}
	fmt.Println(report.String())
	return nil
}
