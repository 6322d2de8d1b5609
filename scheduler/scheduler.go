// Package scheduler runs settlement passes on a cron schedule
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shaxten/nhl-app/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultPassTimeout bounds a single scheduled settlement pass
const DefaultPassTimeout = 5 * time.Minute

// Scheduler triggers SettlementService.ResolvePending on a standard five-field cron spec
type Scheduler struct {
	cron        *cron.Cron
	settlement  service.SettlementService
	passTimeout time.Duration
}

// New parses spec and registers the settlement job. Nothing runs until Start.
func New(spec string, settlement service.SettlementService) (*Scheduler, error) {
	s := &Scheduler{
		settlement:  settlement,
		passTimeout: DefaultPassTimeout,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(log.StandardLogger())),
		cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
	))
	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid settlement schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled or the returned stop function is called
func (s *Scheduler) Start(ctx context.Context) func() {
	s.cron.Start()
	log.WithField("entries", len(s.cron.Entries())).Info("Settlement scheduler started")

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		// Wait for a pass that is already running
		<-s.cron.Stop().Done()
		log.Info("Settlement scheduler stopped")
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.passTimeout)
	defer cancel()

	report, err := s.settlement.ResolvePending(ctx)
	if errors.Is(err, service.ErrSettlementInProgress) {
		log.Info("Skipping scheduled settlement, a pass is already running")
		return
	}
	if err != nil {
		log.WithError(err).Error("Scheduled settlement failed")
		return
	}

	log.WithFields(log.Fields{
		"settled":  report.Settled,
		"refunded": report.Refunded,
		"deferred": report.Deferred,
		"failures": report.Failures,
		"paidOut":  report.PaidOut,
	}).Info("Scheduled settlement finished")
}
