package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-analysis/internal/logger"
	"github.com/i474232898/weather-analysis/internal/weather"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req weather.AnalysisRequest) (*weather.AnalysisResult, error)
}

// Scheduler periodically analyzes the watched locations and stores the results.
type Scheduler struct {
	scheduler *gocron.Scheduler
	analyzer  Analyzer
	store     weather.ResultStore
	watchlist []weather.AnalysisRequest
	interval  time.Duration
	timeout   time.Duration
	log       logger.Logger
}

// New creates a new Scheduler. timeout bounds each analysis.
func New(watchlist []weather.AnalysisRequest, interval, timeout time.Duration, analyzer Analyzer, store weather.ResultStore, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		analyzer:  analyzer,
		store:     store,
		watchlist: watchlist,
		interval:  interval,
		timeout:   timeout,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.watchlist) == 0 {
		s.log.Info("no watchlist entries configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warnf("watchlist run finished with errors: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce analyzes every watchlist entry concurrently and saves each success.
// Failures are logged and returned joined; they do not stop other entries.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.log.Infof("running watchlist analysis for %d locations", len(s.watchlist))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, req := range s.watchlist {
		req := req
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result, err := s.analyzer.Analyze(ctx, req)
			if err != nil {
				s.log.Warnf("analysis failed for %s: %v", req.Location.Key(), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", req.Location.Key(), err))
				mu.Unlock()
				return
			}
			s.store.Save(req.Location, *result)
		}()
	}
	wg.Wait()

	s.log.Infof("completed watchlist analysis (%d failed)", len(errs))
	return errors.Join(errs...)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
