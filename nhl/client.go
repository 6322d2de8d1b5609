// Package nhl reads game results, standings and the daily schedule from the NHL web API.
package nhl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shaxten/nhl-app/cache"
	"github.com/Shaxten/nhl-app/models"
	"github.com/Shaxten/nhl-app/observability"
	"github.com/Shaxten/nhl-app/service"

	log "github.com/sirupsen/logrus"
)

const (
	dateLayout = "2006-01-02"

	endpointLanding   = "landing"
	endpointStandings = "standings"
	endpointSchedule  = "schedule"

	maxBodyBytes = 4 << 20
)

// Options configures the upstream client
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	ResultTTL    time.Duration
	StandingsTTL time.Duration
	ScheduleTTL  time.Duration
}

// Caches are the stores the client reads through. Nil fields get a process-local cache.
type Caches struct {
	Results   cache.Cache[models.GameResult]
	Standings cache.Cache[[]models.Standing]
	Schedule  cache.Cache[[]models.ScheduledGame]
}

// Client implements service.GameFeed
type Client struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
	caches     Caches
}

var _ service.GameFeed = (*Client)(nil)

// NewClient creates a client for the API rooted at opts.BaseURL
func NewClient(opts Options, caches Caches) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if caches.Results == nil {
		caches.Results = cache.NewMemoryCache[models.GameResult]()
	}
	if caches.Standings == nil {
		caches.Standings = cache.NewMemoryCache[[]models.Standing]()
	}
	if caches.Schedule == nil {
		caches.Schedule = cache.NewMemoryCache[[]models.ScheduledGame]()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		caches:     caches,
	}
}

// FetchResult returns the state and score of one game. Final results are cached;
// anything else is fetched fresh on every call.
func (c *Client) FetchResult(ctx context.Context, gameID int64) (*models.GameResult, error) {
	key := cache.Key(gameID)
	if cached, err := c.caches.Results.Get(ctx, key); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.WithFields(log.Fields{
			"gameID": gameID,
			"error":  err,
		}).Warn("Result cache read failed")
	}

	var payload landingPayload
	if err := c.getJSON(ctx, endpointLanding, fmt.Sprintf("/gamecenter/%d/landing", gameID), &payload); err != nil {
		return nil, err
	}
	result, err := payload.toResult(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: game %d: %v", service.ErrUpstreamFetch, gameID, err)
	}

	if result.IsFinal() {
		if err := c.caches.Results.Set(ctx, key, *result, c.opts.ResultTTL); err != nil {
			log.WithFields(log.Fields{
				"gameID": gameID,
				"error":  err,
			}).Warn("Result cache write failed")
		}
	}
	return result, nil
}

// FetchStandings returns the current league standings
func (c *Client) FetchStandings(ctx context.Context) ([]models.Standing, error) {
	return cache.GetOrFetch(ctx, c.caches.Standings, "now", c.opts.StandingsTTL, func(ctx context.Context) ([]models.Standing, error) {
		var payload standingsPayload
		if err := c.getJSON(ctx, endpointStandings, "/standings/now", &payload); err != nil {
			return nil, err
		}
		standings, err := payload.toStandings()
		if err != nil {
			return nil, fmt.Errorf("%w: standings: %v", service.ErrUpstreamFetch, err)
		}
		return standings, nil
	})
}

// FetchSchedule returns the games scheduled on day (UTC date)
func (c *Client) FetchSchedule(ctx context.Context, day time.Time) ([]models.ScheduledGame, error) {
	date := day.UTC().Format(dateLayout)
	return cache.GetOrFetch(ctx, c.caches.Schedule, date, c.opts.ScheduleTTL, func(ctx context.Context) ([]models.ScheduledGame, error) {
		var payload schedulePayload
		if err := c.getJSON(ctx, endpointSchedule, "/schedule/"+date, &payload); err != nil {
			return nil, err
		}
		games, err := payload.toSchedule(day.UTC())
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %s: %v", service.ErrUpstreamFetch, date, err)
		}
		return games, nil
	})
}

// ClearCache drops every cached response
func (c *Client) ClearCache(ctx context.Context) error {
	if err := c.caches.Results.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear result cache: %w", err)
	}
	if err := c.caches.Standings.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear standings cache: %w", err)
	}
	if err := c.caches.Schedule.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear schedule cache: %w", err)
	}
	log.Info("Upstream caches cleared")
	return nil
}

// getJSON performs a GET and decodes a 2xx body into out. Every failure wraps ErrUpstreamFetch.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) (err error) {
	start := time.Now()
	defer func() {
		observability.GetMetrics().RecordUpstreamFetch(endpoint, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request %s: %v", service.ErrUpstreamFetch, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", service.ErrUpstreamFetch, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: GET %s: status %d", service.ErrUpstreamFetch, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", service.ErrUpstreamFetch, path, err)
	}

	log.WithFields(log.Fields{
		"path":     path,
		"duration": time.Since(start),
	}).Debug("Fetched upstream data")
	return nil
}
