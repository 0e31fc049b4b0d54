// Package scheduler runs the periodic catalog refresh
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"github.com/sirupsen/logrus"
)

const component = "catalog.scheduler"

// Job is one scheduled run
type Job func(ctx context.Context) error

// Parser accepts six-field specs with seconds as well as descriptors like @hourly
func Parser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// ValidateSpec reports whether spec can be scheduled
func ValidateSpec(spec string) error {
	if _, err := Parser().Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs a job on a cron schedule. Runs never overlap.
type Scheduler struct {
	spec    string
	job     Job
	timeout time.Duration

	cron    *cron.Cron
	running bool
	mu      sync.Mutex
}

// New creates a scheduler. Each run gets its own context bounded by timeout.
func New(spec string, timeout time.Duration, job Job) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Scheduler{spec: spec, job: job, timeout: timeout}
}

// Start registers the job and starts the cron engine
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logging.WithComponent(component).Warn("scheduler already running")
		return nil
	}

	cronLogger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(
		cron.WithParser(Parser()),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	if _, err := c.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	logging.WithComponentAndFields(component, logging.Fields{"schedule": s.spec}).Info("scheduler started")
	return nil
}

// Stop stops the engine and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.cron = nil
	s.running = false

	logging.WithComponent(component).Info("scheduler stopped")
}

// run is detached from any request or shutdown context; Stop waits for it
func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	log := logging.WithComponent(component)
	if err := s.job(ctx); err != nil {
		log.WithError(err).Error("scheduled run failed")
		return
	}
	log.WithField("took", time.Since(started).String()).Info("scheduled run finished")
}
